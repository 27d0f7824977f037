// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos em engine/domain.
//
// Exemplos:
//   - KeyLocker: escopo exclusivo por chave (prêmio+dia, usuário+dia)
//   - MemoryLedger / GormLedger / RedisLedger: registro de vitórias
//   - MemoryCatalog / GormCatalog: concursos e prêmios, seed via TOML
//   - MemoryOutcomeStore / RedisOutcomeStore: contadores de avaliações por hora
package infra
