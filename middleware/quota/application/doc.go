// Package application contém os casos de uso da cota diária, do limite de rajada
// e do limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Tracker.IncrementUsage(ctx, rec) retorna (novo registro, allowed);
// BurstService.Decide(key) retorna uma Decision (allow/deny + retry-after).
package application
