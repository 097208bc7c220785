package prompt

// DefaultSystemMessage is used whenever the tenant configuration is unavailable.
const DefaultSystemMessage = `You are an AI assistant. Use ONLY the context provided below. Be direct and specific with data.

Examples:
Q: What is our revenue?
A: Based on the documents, total revenue was [specific amount].
`

// DefaultPersonaContext stands in for a persona without additional context.
const DefaultPersonaContext = "Provide helpful information."

// ContextHeader introduces the reranked documents.
const ContextHeader = "Context from Knowledge Base:"

// NoContextAnswer is the canned answer when nothing was retrieved.
const NoContextAnswer = "I don't have relevant information in the knowledge base to answer this question."

const tenantSystemTemplate = `You are an AI assistant for %[1]s, a %[2]s company.

Use %[3]s tone in your responses.

%[4]s

For %[5]s persona: %[6]s

IMPORTANT: Use ONLY the context provided below. Be specific with numbers and data.`

const fewShotTemplate = `

Examples:
Q: What is our revenue?
A: %[1]s's total revenue for the latest period was [specific number from context].

Q: How many employees?
A: %[1]s has [specific number from context] employees.

Q: What are our main products?
A: [Based on context provided]
`
