// Copyright 2025 The Immi-Law Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package deepsearch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt builders for each pipeline stage. Every prompt opens with the
// conversation history so the model can resolve elliptical follow-ups.

func buildClassifierPrompt(query, history string) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s

You are an expert classifier. Determine if the following user question is about US immigration or citizenship (including visas, green cards, naturalization, USCIS, etc).

QUESTION: "%s"

NOTE: the question itself can be unclear, ambiguous, read the whole chat history to comprehend it

Respond with ONLY YES or NO.
`, history, query)
}

func buildExpansionPrompt(query, history string, count int) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s

You are a query expansion expert. Your task is to understand the user's information needs and generate diverse search queries that will help find comprehensive answers.

Original query: %s

# ANALYSIS PROCESS
First, analyze the query carefully with context:
1. What is the core information need behind this query given all the chat history?
2. What are the key entities and concepts in this query?
3. What DIFFERENT ASPECTS or angles of this topic would be valuable to explore for this user?
4. What related concepts would provide useful context for a complete answer?

# QUERY GENERATION INSTRUCTIONS
Based on your analysis, generate %d search queries that:
1. EXPAND on the query with more specific details or broader context
2. Explore DIFFERENT FACETS of the same general topic
3. Include key entities from the query
4. Add relevant modifiers, related concepts, or specific aspects
5. Vary in scope (some narrower/focused, some broader/comprehensive)
6. Use different phrasing and vocabulary while maintaining meaning

# BALANCING FOCUS AND EXPANSION
- Each query should be clearly connected to the original topic
- Queries should be MEANINGFULLY DIFFERENT from each other
- Add relevant context, qualifiers, timeframes, or specificity

# RESPONSE FORMAT
Your entire response MUST be valid parseable JSON, starting with '[' and ending with ']'.
Do not include any text before or after the JSON array.

Example of CORRECT response format:
["query 1", "query 2", "query 3", "query 4", "query 5"]
`, history, query, count)
}

func buildGroundedAnswerPrompt(query, history, context string) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s
Based on the following document content, answer this question: %s

Document content:
%s

Answer the question clearly and concisely using only the information provided above.
`, history, query, context)
}

func buildGatePrompt(answers, previousGaps []string, originalQuery string, iteration, maxIterations int, history string) string {
	answersJSON, _ := json.Marshal(answers)
	gapsJSON, _ := json.Marshal(previousGaps)

	return fmt.Sprintf(`CHAT HISTORY:
%s

You are an expert immigration lawyer and legal reasoning agent. Your task is to analyze search results, identify relevant legal information, and determine if further research is needed to provide accurate immigration advice.

ORIGINAL QUERY: %s

CURRENT SEARCH ITERATION: %d

SEARCH RESULTS:
%s

PREVIOUSLY IDENTIFIED LEGAL GAPS:
%s

INSTRUCTIONS:
1. Analyze the search results carefully to extract key legal information related to the original query.
2. Identify any NEW legal gaps or unresolved legal questions that require further research. Do NOT repeat previously identified legal gaps.
3. Decide if the research process should continue or if we have sufficient information to answer the query with sound legal advice.
4. If further research is needed, generate specific new research queries to fill the NEW legal gaps.
5. Format your response as a JSON object with the following structure:

{
  "key_points": ["point 1", "point 2", "..."],
  "knowledge_gaps": ["gap 1", "gap 2", "..."],
  "new_queries": ["query 1", "query 2", "..."],
  "search_complete": true/false,
  "reasoning": "Your explanation of why the research is complete or needs to continue"
}

CRITICAL: Your entire response MUST be a valid, parseable JSON object and nothing else. Do not include any text before or after the JSON object. The response must start with '{' and end with '}' and contain only valid JSON.

If there are no legal gaps or the research should stop, return an empty array for "knowledge_gaps" and "new_queries" and set "search_complete" to true.

IMPORTANT: If this is already iteration %d or higher, set "search_complete" to true regardless of legal gaps.
`, history, originalQuery, iteration, answersJSON, gapsJSON, maxIterations)
}

// renderSearchContext zips sub-queries with their answers into Q/A blocks.
func renderSearchContext(questions, answers []string) string {
	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}

	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = fmt.Sprintf("Q: %s\nA: %s", questions[i], answers[i])
	}
	return strings.Join(blocks, "\n")
}

func buildOutlinePrompt(originalQuery string, questions, answers []string, history string) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s

You are an expert research analyst and outline creator. Your task is to create a well-structured outline for answering a query based on search results.

ORIGINAL QUERY: %s

SEARCH CONTEXT:
%s

INSTRUCTIONS:
Your task is to formulate an OUTLINE ONLY for a complete answer with three distinct sections:

1. KEY POINTS: List 5-7 bullet points that would be the most important findings and facts
2. DIRECT ANSWER: Provide a brief description of what should be covered in the direct answer section (2-3 paragraphs)
3. DETAILED NOTES: Create a comprehensive outline with:
   a. Main section headings (3-5 sections)
   b. For each section, provide 2-3 sub-points that should be covered
   c. Note any specific technical details, examples, or comparisons that should be included
   d. Suggest logical flow for presenting the information

IMPORTANT RULES:
1. ONLY include information that is directly supported by the search context
2. DO NOT make up or infer information not present in the search results
3. If information is missing or unclear, note it as a limitation rather than making assumptions
4. Use direct quotes from search results when appropriate
5. Maintain academic rigor and avoid speculation

Format your outline using proper markdown sections. THIS IS ONLY AN OUTLINE - do not write the full content.
Make the outline detailed enough that a content writer can easily expand it into a complete, informative answer.
`, history, originalQuery, renderSearchContext(questions, answers))
}

func buildSynthesisPrompt(originalQuery string, questions, answers []string, outline, history string) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s

You are an expert content writer. Your task is to expand an outline into a comprehensive, detailed answer.

ORIGINAL QUERY: %s

SEARCH CONTEXT:
%s

OUTLINE:
%s

INSTRUCTIONS:
Transform the provided outline into a comprehensive, detailed answer that follows the exact structure of the outline.
For each section:
1. Expand bullet points into detailed paragraphs with rich information
2. Maintain the hierarchical structure from the outline
3. Include technical details, examples, and comparisons suggested in the outline
4. Ensure smooth transitions between sections
5. Use an authoritative, clear writing style
6. Do not include citation-style references like "(Q1)" or "(A2)"

IMPORTANT RULES:
1. ONLY include information that is directly supported by the search context
2. DO NOT make up or infer information not present in the search results
3. If information is missing or unclear, note it as a limitation rather than making assumptions
4. Use direct quotes from search results when appropriate
5. Maintain academic rigor and avoid speculation
6. If the search context is insufficient to answer a point, clearly state this limitation

Your expanded answer should be thorough, informative, and directly address the original query,
while carefully following the outline structure and maintaining strict adherence to the search context.
`, history, originalQuery, renderSearchContext(questions, answers), outline)
}

func buildDirectAnswerPrompt(query, history string) string {
	return fmt.Sprintf(`CHAT HISTORY:
%s

You are an expert immigration lawyer specialized in US immigration and citizenship. Your task is to give legal advice based on the original query.

USER QUERY: %s

Please respond accordingly, if the user query is not related to immigration, please let them know.
`, history, query)
}
