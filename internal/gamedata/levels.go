package gamedata

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// LevelsFileName is the embedded level table.
const LevelsFileName = "levels.json"

// ErrInvalidTable is returned when a level table fails validation.
var ErrInvalidTable = errors.New("invalid level table")

// LevelDef defines one quiz level loaded from JSON.
type LevelDef struct {
	ID            int      `json:"id" validate:"min=1"`                                // Sequence position, 1-based
	Question      string   `json:"question" validate:"required"`                       // Text shown on the quiz card
	Options       []string `json:"options" validate:"min=2,max=9,unique,dive,required"` // Candidate answers in display order
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`                  // Must equal one of Options exactly
	Color         string   `json:"color,omitempty" validate:"omitempty,hexcolor"`      // Board accent (e.g., "#FFD700")
}

// HasOption reports whether answer is one of the level's options.
func (l *LevelDef) HasOption(answer string) bool {
	return slices.Contains(l.Options, answer)
}

// LevelsFile represents the structure of levels.json.
type LevelsFile struct {
	Levels []LevelDef `json:"levels" validate:"required,min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-level rules: the correct
// answer is one of the options and ids run 1..n in order.
func (f *LevelsFile) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidTable, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	for i := range f.Levels {
		l := &f.Levels[i]
		if l.ID != i+1 {
			return fmt.Errorf("%w: level at position %d has id %d, want %d", ErrInvalidTable, i, l.ID, i+1)
		}
		if !l.HasOption(l.CorrectAnswer) {
			return fmt.Errorf("%w: level %d correct answer %q is not an option", ErrInvalidTable, l.ID, l.CorrectAnswer)
		}
	}
	return nil
}

// LoadLevels loads and validates level definitions from the embedded levels.json file.
func LoadLevels() ([]LevelDef, error) {
	file, err := Load[LevelsFile](LevelsFileName)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return file.Levels, nil
}
