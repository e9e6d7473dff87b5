package sniffer

import (
	"bytes"
	"path/filepath"
	"strings"
)

// FileFormat is the container type of an uploaded statement.
type FileFormat string

const (
	FormatDelimited   FileFormat = "csv"
	FormatSpreadsheet FileFormat = "spreadsheet"
	FormatDocument    FileFormat = "pdf"
	FormatUnknown     FileFormat = "unknown"
)

var (
	magicPDF  = []byte("%PDF-")
	magicZIP  = []byte("PK\x03\x04")
	magicOLE2 = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var extensionFormats = map[string]FileFormat{
	".csv":  FormatDelimited,
	".tsv":  FormatDelimited,
	".txt":  FormatDelimited,
	".xlsx": FormatSpreadsheet,
	".xlsm": FormatSpreadsheet,
	".xls":  FormatSpreadsheet,
	".pdf":  FormatDocument,
}

// DetectFormat classifies content using, in order, the filename extension,
// magic bytes and whether the bytes decode to delimited text. A binary
// signature overrides a text extension: a PDF renamed to .csv is a PDF.
func DetectFormat(filename string, content []byte) FileFormat {
	magic := magicFormat(content)

	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		if f == FormatDelimited && magic != FormatUnknown {
			return magic
		}
		return f
	}
	if magic != FormatUnknown {
		return magic
	}
	if looksDelimited(content) {
		return FormatDelimited
	}
	return FormatUnknown
}

// IsLegacySpreadsheet reports whether content is an OLE2 (.xls) workbook
// rather than a zipped OOXML one.
func IsLegacySpreadsheet(content []byte) bool {
	return bytes.HasPrefix(content, magicOLE2)
}

func magicFormat(content []byte) FileFormat {
	head := bytes.TrimLeft(content[:min(len(content), 1024)], "\x00\t\r\n ")
	switch {
	case bytes.HasPrefix(head, magicPDF):
		return FormatDocument
	case bytes.HasPrefix(content, magicZIP), bytes.HasPrefix(content, magicOLE2):
		return FormatSpreadsheet
	}
	return FormatUnknown
}

func looksDelimited(content []byte) bool {
	if len(bytes.TrimSpace(content)) == 0 {
		return false
	}
	sample := content[:min(len(content), 8192)]
	if bytes.IndexByte(sample, 0) >= 0 && !hasUTF16BOM(sample) {
		return false
	}
	text, _, err := Decode(sample)
	if err != nil {
		return false
	}
	delim := DetectDelimiter(strings.Split(text, "\n"))
	return delim != 0
}
