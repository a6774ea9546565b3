// Package quota fornece adapters HTTP (net/http) para a cota diária de uso, o limite
// de rajada e o limite de concorrência das operações de documento.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (UsageRecord, RecordStore, Clock...) sem net/http
//   - application: casos de uso (Tracker, BurstService, ConcurrencyService) sem net/http
//   - infra: storages (memória, Redis, Valkey, bbolt), token bucket, semáforo, stats
//   - quota (este pacote): middlewares + handlers HTTP, extração de chave e tradução
//     das decisões para status/headers/JSON
//
// Fluxo de uma operação gated:
//
//  1. Extrai a chave do chamador (header/XFF/IP)
//  2. Limite de rajada: se bloqueado, 429 com Retry-After (não consome cota)
//  3. Concorrência: espera vaga; se esgotar o timeout, 503 (não consome cota)
//  4. Cota diária: carrega o registro, IncrementUsage; se recusado, 429 com JSON
//  5. Chama o handler do documento
//
// A cota é contada por tentativa, não por sucesso: uma operação que falha depois do
// gate já consumiu a unidade.
package quota
