package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"contest-gateway/engine/domain"

	"github.com/BurntSushi/toml"
)

// CatalogFile é o formato TOML do seed:
//
//	[[contest]]
//	code = "SUMMER"
//	name = "Summer contest"
//	valid_from = "2025-06-01"
//	valid_to = "2025-08-31"
//
//	  [[contest.prize]]
//	  code = "SUMMER-TSHIRT"
//	  name = "T-shirt"
//	  per_day = 45
type CatalogFile struct {
	Contests []contestEntry `toml:"contest"`
}

type contestEntry struct {
	Code      string       `toml:"code"`
	Name      string       `toml:"name"`
	ValidFrom string       `toml:"valid_from"`
	ValidTo   string       `toml:"valid_to"`
	Prizes    []prizeEntry `toml:"prize"`
}

type prizeEntry struct {
	Code   string `toml:"code"`
	Name   string `toml:"name"`
	PerDay int    `toml:"per_day"`
}

func LoadCatalogFile(path string) (CatalogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return CatalogFile{}, err
	}
	defer f.Close()
	return DecodeCatalog(f)
}

func DecodeCatalog(r io.Reader) (CatalogFile, error) {
	var file CatalogFile
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return CatalogFile{}, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return CatalogFile{}, fmt.Errorf("%w: unknown keys %v", domain.ErrInvalidCatalog, undecoded)
	}
	return file, nil
}

// SeedCatalog grava cada concurso do arquivo e devolve quantos foram gravados.
// Para no primeiro erro.
func SeedCatalog(ctx context.Context, w domain.CatalogWriter, file CatalogFile) (int, error) {
	for i, entry := range file.Contests {
		contest := domain.Contest{
			Code:      strings.TrimSpace(entry.Code),
			Name:      entry.Name,
			ValidFrom: domain.Day(strings.TrimSpace(entry.ValidFrom)),
			ValidTo:   domain.Day(strings.TrimSpace(entry.ValidTo)),
		}
		prizes := make([]domain.Prize, 0, len(entry.Prizes))
		for _, p := range entry.Prizes {
			prizes = append(prizes, domain.Prize{
				Code:   strings.TrimSpace(p.Code),
				Name:   p.Name,
				PerDay: p.PerDay,
			})
		}
		if err := w.PutContest(ctx, contest, prizes); err != nil {
			return i, fmt.Errorf("contest %q: %w", contest.Code, err)
		}
	}
	return len(file.Contests), nil
}

// normalizeContest valida o concurso e os prêmios e amarra cada prêmio ao
// código do concurso.
func normalizeContest(contest domain.Contest, prizes []domain.Prize) ([]domain.Prize, error) {
	if err := contest.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(prizes))
	out := make([]domain.Prize, 0, len(prizes))
	for _, p := range prizes {
		if p.ContestCode != "" && p.ContestCode != contest.Code {
			return nil, fmt.Errorf("%w: prize %s belongs to %s, not %s", domain.ErrInvalidCatalog, p.Code, p.ContestCode, contest.Code)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.Code]; dup {
			return nil, fmt.Errorf("%w: prize %s repeated in %s", domain.ErrInvalidCatalog, p.Code, contest.Code)
		}
		seen[p.Code] = struct{}{}
		p.ContestCode = contest.Code
		out = append(out, p)
	}
	return out, nil
}

func prizeOwnedError(prizeCode, owner string) error {
	return fmt.Errorf("%w: prize %s already belongs to contest %s", domain.ErrInvalidCatalog, prizeCode, owner)
}
