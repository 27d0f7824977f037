// Package infra implementa os contratos de ratelimit/domain:
//
//   - Store: token bucket por chave (golang.org/x/time/rate) num mapa xsync
//   - NewChanPool: semáforo por channel para o limite de concorrência
package infra
