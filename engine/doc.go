// Package engine expõe o motor de prêmios por HTTP (gin).
//
// Rotas:
//
//   - GET /play: gate do concurso -> coordinator -> {win, prize, contest, timestamp}
//   - GET /stats: relatório diário por prêmio (vitórias por hora, plano ideal, CV)
//   - GET /: nome, versão e concursos ativos
//   - GET /healthz
//
// Erros do domínio viram status: 400 sem contest, 404 concurso desconhecido,
// 422 fora da janela, 503 + Retry-After para falhas transitórias.
package engine
