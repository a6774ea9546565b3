// Package domain define contratos e tipos de domínio para a cota diária de uso,
// o limite de rajada e o limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas de storage.
// UsageRecord é um valor: as regras que o transformam ficam no pacote application
// e a persistência fica atrás de RecordStore.
package domain
