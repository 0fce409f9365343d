// Package bundle turns an uploaded skill file bundle into validated publish
// input: sanitized paths, text-only classification, readme frontmatter,
// tool metadata and the bounded text used to generate the embedding.
package bundle
