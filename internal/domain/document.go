package domain

// FAQDocument is a single FAQ entry from the claims knowledge base.
// Documents are created at index-build time and read-only to the pipeline.
type FAQDocument struct {
	ID       string
	Category string
	Question string
	Answer   string
	Section  string
}

// Query is one user question scoped to a claims section.
type Query struct {
	Text    string
	Section string
}

// Known claims sections. The section field is free-form in the index;
// these are the values the FAQ corpus ships with.
const (
	SectionGeneral = "general claim benefits"
	SectionNHS     = "nhs claim benefits"
)
