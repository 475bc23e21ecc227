// Package html provides a Normaliser for HTML pages. It walks the token
// stream and keeps only readable body text.
package html
