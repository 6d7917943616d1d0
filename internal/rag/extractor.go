package rag

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	apperrors "github.com/aihub/rag-service/internal/errors"
)

// Extractor 文档文本提取器接口
type Extractor interface {
	Extract(content []byte) (string, error)
	Supports(filename, contentType string) bool
}

// TextExtractor 纯文本提取器（兜底）
// 采用有损解码：非法字节序列替换为占位符，解码本身永不失败
type TextExtractor struct{}

func (e *TextExtractor) Supports(filename, contentType string) bool {
	return true
}

func (e *TextExtractor) Extract(content []byte) (string, error) {
	return strings.ToValidUTF8(string(content), "�"), nil
}

// PDFExtractor PDF文本提取器
type PDFExtractor struct{}

func (e *PDFExtractor) Supports(filename, contentType string) bool {
	if contentType == "application/pdf" {
		return true
	}
	return strings.ToLower(filepath.Ext(filename)) == ".pdf"
}

// Extract 按页序提取文本，无文本的页不产出内容，页间以换行连接
func (e *PDFExtractor) Extract(content []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid PDF document: %v", err))
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("failed to read PDF pages: %v", err))
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			continue
		}

		text, err := ex.ExtractText()
		if err != nil || text == "" {
			continue
		}

		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// WordExtractor Word文档提取器（仅.docx）
type WordExtractor struct{}

func (e *WordExtractor) Supports(filename, contentType string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".docx"
}

func (e *WordExtractor) Extract(content []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid Word document: %v", err))
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// ExtractorManager 按声明类型和文件名分发到具体提取器
type ExtractorManager struct {
	extractors []Extractor
}

// NewExtractorManager 创建提取器管理器
// TextExtractor兜底，保证任意输入都能产出一个字符串
func NewExtractorManager() *ExtractorManager {
	return &ExtractorManager{
		extractors: []Extractor{
			&PDFExtractor{},
			&WordExtractor{},
			&TextExtractor{},
		},
	}
}

// Extract 提取文档纯文本
func (m *ExtractorManager) Extract(content []byte, filename, contentType string) (string, error) {
	for _, e := range m.extractors {
		if e.Supports(filename, contentType) {
			return e.Extract(content)
		}
	}
	// TextExtractor兜底后不可达
	return "", apperrors.NewValidationError(fmt.Sprintf("unsupported document format: %s", filename))
}
