package domain

import (
	"strings"
	"time"
)

// Gender es el conjunto cerrado de valores admitidos para el genero.
type Gender string

const (
	GenderMale   Gender = "남"
	GenderFemale Gender = "여"
)

// Valid indica si el valor pertenece a la enumeracion.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// DateLayout es el formato de fechas de calendario en la API.
const DateLayout = "2006-01-02"

// Account es el registro persistido de un usuario. Nunca se borra fisicamente.
type Account struct {
	ID            string
	UserID        string
	PasswordHash  string
	Email         string
	Name          string
	PhoneNumber   string
	BirthDate     time.Time
	Gender        Gender
	IsMarried     bool
	Job           string
	Diseases      []string
	Subscriptions []string
	CreatedAt     time.Time
	ModifiedAt    time.Time
	IsLoggedIn    bool
	IsDeleted     bool
	// Version lo incrementa el store en cada escritura.
	Version int64
}

// AccountState es el estado minimo para decidir si una copia cacheada sigue vigente.
type AccountState struct {
	Version   int64
	IsDeleted bool
}

// NewAccountParams agrupa los datos de alta de una cuenta.
type NewAccountParams struct {
	ID            string
	UserID        string
	PasswordHash  string
	Email         string
	Name          string
	PhoneNumber   string
	BirthDate     time.Time
	Gender        Gender
	IsMarried     bool
	Job           string
	Diseases      []string
	Subscriptions []string
}

// NewAccount construye una cuenta activa y deslogueada con timestamps en now.
func NewAccount(p NewAccountParams, now time.Time) Account {
	now = now.UTC()
	return Account{
		ID:            p.ID,
		UserID:        p.UserID,
		PasswordHash:  p.PasswordHash,
		Email:         p.Email,
		Name:          p.Name,
		PhoneNumber:   p.PhoneNumber,
		BirthDate:     truncateDate(p.BirthDate),
		Gender:        p.Gender,
		IsMarried:     p.IsMarried,
		Job:           p.Job,
		Diseases:      CloneTags(p.Diseases),
		Subscriptions: CloneTags(p.Subscriptions),
		CreatedAt:     now,
		ModifiedAt:    now,
		IsLoggedIn:    false,
		IsDeleted:     false,
	}
}

// Active indica si la cuenta puede autenticarse y operar sobre su perfil.
func (a Account) Active() bool {
	return !a.IsDeleted
}

// Profile devuelve el snapshot publico de la cuenta, sin hash de password.
func (a Account) Profile() Profile {
	return Profile{
		UserID:        a.UserID,
		Email:         a.Email,
		Name:          a.Name,
		PhoneNumber:   a.PhoneNumber,
		BirthDate:     Date{Time: a.BirthDate},
		Gender:        a.Gender,
		IsMarried:     a.IsMarried,
		Job:           a.Job,
		Diseases:      CloneTags(a.Diseases),
		Subscriptions: CloneTags(a.Subscriptions),
		IsLoggedIn:    a.IsLoggedIn,
	}
}

// Profile es la vista de una cuenta que se expone a clientes.
type Profile struct {
	UserID        string   `json:"userId"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	PhoneNumber   string   `json:"phoneNumber"`
	BirthDate     Date     `json:"birthDate"`
	Gender        Gender   `json:"gender"`
	IsMarried     bool     `json:"isMarried"`
	Job           string   `json:"job"`
	Diseases      []string `json:"diseases"`
	Subscriptions []string `json:"subscriptions"`
	IsLoggedIn    bool     `json:"isLoggedIn"`
}

// CloneTags copia una lista de etiquetas preservando el orden; nil pasa a vacio.
func CloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Date es una fecha de calendario serializada como YYYY-MM-DD.
type Date struct {
	time.Time
}

// ParseDate interpreta una fecha YYYY-MM-DD en UTC.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
