// Package aggregates implements the skill write model: every publish, retag
// and moderation change runs here in one transaction that locks the skill row
// first. Read paths use the table repos directly.
package aggregates
