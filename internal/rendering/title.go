package rendering

import "strings"

// Skipped marks a title page field the user chose not to fill in.
const Skipped = "-"

// TitleInfo holds the title page fields collected from the user
type TitleInfo struct {
	Topic     string
	Student   string
	EduPlace  string
	Direction string
	Group     string
	Subject   string
	Teacher   string
}

// Ministry is printed at the top of every document title page.
const Ministry = "O'ZBEKISTON RESPUBLIKASI OLIY TA'LIM, FAN VA INNOVATSIYALAR VAZIRLIGI"

// NotFound replaces sections without usable content in documents.
const NotFound = "Ma'lumot topilmadi."

func filled(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != Skipped
}

type field struct {
	Label string
	Value string
	Bold  bool
}

// signature lists the filled fields of the document signature block
func (t TitleInfo) signature() []field {
	all := []field{
		{"Bajardi", t.Student, true},
		{"Guruh", t.Group, false},
		{"Yo'nalish", t.Direction, false},
		{"Qabul qildi", t.Teacher, true},
		{"Fan", t.Subject, false},
	}
	out := all[:0]
	for _, f := range all {
		if filled(f.Value) {
			out = append(out, f)
		}
	}
	return out
}

// slideCredits returns the info lines of the title slide. An empty string
// is a blank separator line.
func (t TitleInfo) slideCredits() []string {
	lines := []string{"Tayyorladi: " + t.Student}
	if filled(t.Group) {
		lines = append(lines, "Guruh: "+t.Group)
	}
	if filled(t.Direction) {
		lines = append(lines, "Yo'nalish: "+t.Direction)
	}
	return append(lines, "", "Fan: "+t.Subject, "Qabul qildi: "+t.Teacher)
}
