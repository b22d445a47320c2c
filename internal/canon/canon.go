// Package canon defines the fixed taxonomy of standard works and their books.
package canon

import "strings"

// Standard work names as they appear in the scripture export.
const (
	OldTestament         = "Old Testament"
	NewTestament         = "New Testament"
	BookOfMormon         = "Book of Mormon"
	DoctrineAndCovenants = "Doctrine and Covenants"
	PearlOfGreatPrice    = "Pearl of Great Price"
)

// Work is one standard work and its books in canonical order.
type Work struct {
	Name  string
	Books []string
}

// Works lists the five standard works in volume order.
var Works = []Work{
	{Name: OldTestament, Books: []string{
		"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
		"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel",
		"1 Kings", "2 Kings", "1 Chronicles", "2 Chronicles", "Ezra",
		"Nehemiah", "Esther", "Job", "Psalms", "Proverbs",
		"Ecclesiastes", "Solomon's Song", "Isaiah", "Jeremiah", "Lamentations",
		"Ezekiel", "Daniel", "Hosea", "Joel", "Amos",
		"Obadiah", "Jonah", "Micah", "Nahum", "Habakkuk",
		"Zephaniah", "Haggai", "Zechariah", "Malachi",
	}},
	{Name: NewTestament, Books: []string{
		"Matthew", "Mark", "Luke", "John", "Acts",
		"Romans", "1 Corinthians", "2 Corinthians", "Galatians", "Ephesians",
		"Philippians", "Colossians", "1 Thessalonians", "2 Thessalonians", "1 Timothy",
		"2 Timothy", "Titus", "Philemon", "Hebrews", "James",
		"1 Peter", "2 Peter", "1 John", "2 John", "3 John",
		"Jude", "Revelation",
	}},
	{Name: BookOfMormon, Books: []string{
		"1 Nephi", "2 Nephi", "Jacob", "Enos", "Jarom",
		"Omni", "Words of Mormon", "Mosiah", "Alma", "Helaman",
		"3 Nephi", "4 Nephi", "Mormon", "Ether", "Moroni",
	}},
	{Name: DoctrineAndCovenants, Books: []string{
		"Doctrine and Covenants",
	}},
	{Name: PearlOfGreatPrice, Books: []string{
		"Moses", "Abraham", "Joseph Smith--Matthew", "Joseph Smith--History", "Articles of Faith",
	}},
}

// Position locates a book inside the taxonomy.
type Position struct {
	Work int
	Book int
}

var workAliases = map[string]string{
	"ot":   OldTestament,
	"nt":   NewTestament,
	"bofm": BookOfMormon,
	"bom":  BookOfMormon,
	"d&c":  DoctrineAndCovenants,
	"dc":   DoctrineAndCovenants,
	"pgp":  PearlOfGreatPrice,
}

var bookAliases = map[string]string{
	"song of solomon": "Solomon's Song",
	"song of songs":   "Solomon's Song",
	"psalm":           "Psalms",
	"revelations":     "Revelation",
	"d&c":             "Doctrine and Covenants",
	"js-m":            "Joseph Smith--Matthew",
	"js-h":            "Joseph Smith--History",
}

var (
	workByKey = map[string]int{}
	bookByKey = map[string]Position{}
)

func init() {
	for wi, w := range Works {
		workByKey[key(w.Name)] = wi
		for bi, b := range w.Books {
			bookByKey[key(b)] = Position{Work: wi, Book: bi}
		}
	}
	for alias, name := range workAliases {
		workByKey[key(alias)] = workByKey[key(name)]
	}
	for alias, name := range bookAliases {
		bookByKey[key(alias)] = bookByKey[key(name)]
	}
}

// key folds the spellings seen across exports: case, dash style, curly
// apostrophes and repeated whitespace.
func key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = dashes.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

var dashes = strings.NewReplacer(
	"—", "-", // em dash
	"–", "-", // en dash
	"--", "-",
	" - ", "-",
	"’", "'",
	"‘", "'",
)

// LookupWork returns the index of the named standard work in Works.
func LookupWork(name string) (int, bool) {
	wi, ok := workByKey[key(name)]
	return wi, ok
}

// Lookup resolves a (work, book) pair against the taxonomy. The book must
// belong to the named work.
func Lookup(work, book string) (Position, bool) {
	wi, ok := LookupWork(work)
	if !ok {
		return Position{}, false
	}
	pos, ok := bookByKey[key(book)]
	if !ok || pos.Work != wi {
		return Position{}, false
	}
	return pos, true
}

// LookupBook resolves a book name on its own. Book names are unique across
// the standard works.
func LookupBook(book string) (Position, bool) {
	pos, ok := bookByKey[key(book)]
	return pos, ok
}

// Name returns the canonical work and book names at pos.
func (p Position) Name() (work, book string) {
	w := Works[p.Work]
	return w.Name, w.Books[p.Book]
}

// BookCount returns the number of books across all standard works.
func BookCount() int {
	n := 0
	for _, w := range Works {
		n += len(w.Books)
	}
	return n
}
