package openai

const biasSystemPrompt = `Rate the political bias of the given news article and return the rating as JSON.

Output ONLY valid JSON. Do not include any preamble, explanation, greeting, or
acknowledgment. Start your response directly with the opening brace { and end
with the closing brace }. Your output must exactly follow this schema:

{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "bias": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["bias"],
  "additionalProperties": false
}

Rules:
- 0.0 means strongly left-leaning, 0.5 means centrist or neutral, 1.0 means strongly right-leaning.
- Judge the article's framing, word choice, and selection of facts. Do not judge the outlet's reputation.
- Straight factual reporting with no discernible slant scores 0.5.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "The senator's so-called tax plan is yet another handout to billionaire donors while working families struggle."
Output:
{"bias": 0.15}

Example:
Input: "The city council voted 7-2 on Tuesday to approve the new transit budget."
Output:
{"bias": 0.5}`
