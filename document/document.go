package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

var (
	ErrNoInput         = errors.New("no input documents")
	ErrEncrypted       = errors.New("cannot process encrypted PDF, remove password protection first")
	ErrInvalidDocument = errors.New("invalid PDF document")
	ErrInvalidImage    = errors.New("invalid image")
)

var disableConfigDir sync.Once

// Processor é o colaborador de documentos. É seguro para uso concorrente:
// cada chamada monta sua própria configuração do pdfcpu.
type Processor struct {
	log zerolog.Logger
}

func NewProcessor(logger zerolog.Logger) *Processor {
	// pdfcpu tenta criar um diretório de config no $HOME; não queremos isso num serviço.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Processor{log: logger.With().Str("component", "document").Logger()}
}

func (p *Processor) conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// IsEncrypted diz se o documento só abre com senha.
// Se abre com senha vazia, não é considerado protegido.
func (p *Processor) IsEncrypted(doc []byte) bool {
	_, err := api.ReadContext(bytes.NewReader(doc), p.conf())
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

func (p *Processor) checkReadable(name string, doc []byte) error {
	if len(doc) == 0 {
		return fmt.Errorf("%s: %w", name, ErrInvalidDocument)
	}
	if p.IsEncrypted(doc) {
		return fmt.Errorf("%s: %w", name, ErrEncrypted)
	}
	return nil
}

// Merge concatena os documentos na ordem recebida.
func (p *Processor) Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, ErrNoInput
	}

	rsc := make([]io.ReadSeeker, 0, len(docs))
	for i, doc := range docs {
		if err := p.checkReadable("file "+strconv.Itoa(i+1), doc); err != nil {
			return nil, err
		}
		rsc = append(rsc, bytes.NewReader(doc))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(rsc, &out, false, p.conf()); err != nil {
		return nil, fmt.Errorf("merge: %w: %v", ErrInvalidDocument, err)
	}
	p.log.Debug().Int("inputs", len(docs)).Int("bytes", out.Len()).Msg("merged documents")
	return out.Bytes(), nil
}

// Split gera um documento de uma página para cada índice (base 0) selecionado.
// Sem seleção, todas as páginas. Índices fora do documento são ignorados.
func (p *Processor) Split(doc []byte, pages []int) ([][]byte, error) {
	count, err := p.PageCount(doc)
	if err != nil {
		return nil, err
	}

	if len(pages) == 0 {
		pages = make([]int, count)
		for i := range pages {
			pages[i] = i
		}
	}

	out := make([][]byte, 0, len(pages))
	for _, idx := range pages {
		if idx < 0 || idx >= count {
			continue
		}
		var buf bytes.Buffer
		sel := []string{strconv.Itoa(idx + 1)}
		if err := api.Trim(bytes.NewReader(doc), &buf, sel, p.conf()); err != nil {
			return nil, fmt.Errorf("split page %d: %w: %v", idx, ErrInvalidDocument, err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

// Compress regrava o documento otimizado (objetos duplicados, fontes, streams).
func (p *Processor) Compress(doc []byte) ([]byte, error) {
	if err := p.checkReadable("file", doc); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(doc), &out, p.conf()); err != nil {
		return nil, fmt.Errorf("compress: %w: %v", ErrInvalidDocument, err)
	}
	p.log.Debug().Int("in_bytes", len(doc)).Int("out_bytes", out.Len()).Msg("compressed document")
	return out.Bytes(), nil
}

func (p *Processor) PageCount(doc []byte) (int, error) {
	if err := p.checkReadable("file", doc); err != nil {
		return 0, err
	}
	n, err := api.PageCount(bytes.NewReader(doc), p.conf())
	if err != nil {
		return 0, fmt.Errorf("page count: %w: %v", ErrInvalidDocument, err)
	}
	return n, nil
}

// ImagesToPDF cria um documento com uma página por imagem (JPEG/PNG/TIFF...).
func (p *Processor) ImagesToPDF(images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoInput
	}

	readers := make([]io.Reader, 0, len(images))
	for i, img := range images {
		if len(img) == 0 {
			return nil, fmt.Errorf("image %d: %w", i+1, ErrInvalidImage)
		}
		readers = append(readers, bytes.NewReader(img))
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, pdfcpu.DefaultImportConfig(), p.conf()); err != nil {
		return nil, fmt.Errorf("images to pdf: %w: %v", ErrInvalidImage, err)
	}
	return out.Bytes(), nil
}
