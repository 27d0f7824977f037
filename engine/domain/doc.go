// Package domain define os tipos e contratos do motor de prêmios.
//
// Aqui ficam concursos, prêmios, registros de vitória, a noção de "dia" no fuso
// de referência e as interfaces que a camada application consome (ledger,
// escopo por chave, relógio, fonte aleatória, configuração).
//
// Este pacote não depende de net/http, gin, gorm ou redis.
package domain
