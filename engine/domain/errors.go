package domain

import "errors"

var (
	ErrContestNotFound = errors.New("contest not found")
	ErrContestInactive = errors.New("contest is not active")
	ErrNoPrize         = errors.New("no prize configured for contest")

	// ErrScopeTimeout: o escopo por chave não foi obtido a tempo. Nada mudou.
	ErrScopeTimeout = errors.New("timed out waiting for prize scope")
	// ErrLedgerUnavailable: falha de armazenamento dentro do escopo. Como a
	// unidade é tudo-ou-nada, repetir é seguro.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrCapReached só circula entre ledger e coordinator; vira derrota normal.
	ErrCapReached = errors.New("daily cap reached")

	ErrInvalidConfig  = errors.New("invalid engine config")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// IsTransient indica falhas que podem ser repetidas pelo chamador.
func IsTransient(err error) bool {
	return errors.Is(err, ErrScopeTimeout) || errors.Is(err, ErrLedgerUnavailable)
}
