package domain

import "context"

// SlotPool limita quantas avaliações rodam ao mesmo tempo no processo.
//
// Acquire espera uma vaga até o ctx encerrar; o release devolvido deve ser
// chamado exatamente uma vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
