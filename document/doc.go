// Package document delega as operações de PDF (merge, split, compressão, contagem de
// páginas, imagens para PDF) ao pdfcpu.
//
// Nada aqui faz parse ou escrita de PDF por conta própria. O pacote só valida a
// entrada, recusa PDFs protegidos por senha e traduz erros para sentinelas.
package document
