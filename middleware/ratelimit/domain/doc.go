// Package domain define os contratos do limite de taxa e de concorrência que
// protegem o endpoint de jogadas.
//
// Não depende de gin nem de net/http.
package domain
