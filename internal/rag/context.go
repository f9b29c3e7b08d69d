package rag

import (
	"fmt"
	"strings"
)

// NoInformationAnswer is returned without consulting the model when retrieval finds nothing.
const NoInformationAnswer = "I don't have enough information to answer that question."

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context.

Context:
%s

Question: %s

Please provide a clear, concise answer based on the context. If the context doesn't contain relevant information to answer the question, say "%s"

Answer:`

// BuildContext numbers the retrieved texts in retrieval order.
func BuildContext(texts []string) string {
	parts := make([]string, 0, len(texts))
	for i, text := range texts {
		parts = append(parts, fmt.Sprintf("Document %d:\n%s", i+1, text))
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt creates a complete prompt with context and user question
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, context, question, NoInformationAnswer)
}
