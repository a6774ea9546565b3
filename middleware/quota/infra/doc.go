// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryRecordStore, RedisRecordStore, ValkeyRecordStore, BoltRecordStore: slot do UsageRecord
//   - BurstStore: token bucket por chamador usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limite de concorrência
//   - Memory/Redis/PrometheusStatsStore: contadores de decisões do gate
//   - KeyLock: serializa read-modify-write por chave dentro do processo
package infra
