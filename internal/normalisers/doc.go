// Package normalisers turns raw file bytes into document text. Each
// sub-package handles one family of MIME types; Registry picks between
// them by priority.
package normalisers
