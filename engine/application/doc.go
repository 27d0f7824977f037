// Package application contém os casos de uso do motor de prêmios.
//
// Depende apenas do pacote domain e não conhece net/http.
//
//   - Policy: probabilidade de vitória a partir dos contadores e da hora do dia
//   - Coordinator: escopo por chave + ledger, tudo-ou-nada por avaliação
//   - Gate: resolve o concurso e barra quem não está ACTIVE
//   - Stats: relatório diário por hora
package application
