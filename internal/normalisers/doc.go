// Package normalisers provides implementations of the Extractor interface
// for various document formats. Each extractor knows how to read text and
// metadata from a specific file type.
//
// Extractors are registered with the Registry at startup. The cleaner
// subpackage applies the text cleaning policy to extracted text.
package normalisers
