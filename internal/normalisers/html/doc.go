// Package html strips markup and entities from article text fields.
// Feed snippets often arrive as HTML fragments.
package html
