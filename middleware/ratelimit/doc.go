// Package ratelimit fornece middlewares gin que protegem o endpoint de
// jogadas: token bucket por cliente e limite global de concorrência.
//
// Camadas:
//
//   - domain: contratos (Limiter, LimiterStore, SlotPool)
//   - application: decisão allow/deny e aquisição com timeout
//   - infra: token bucket com x/time/rate e semáforo por channel
//   - ratelimit (este pacote): extração da chave e tradução para status/headers
//
// Rejeição por taxa responde 420 com Retry-After; falta de vaga responde 503.
// O binário cmd/contestd liga tudo a partir de RATE_RPS, RATE_BURST,
// CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package ratelimit
