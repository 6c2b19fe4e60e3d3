package tokenize

// POSClass groups primary POS tags for the functional/content ratio.
type POSClass int

const (
	Unknown POSClass = iota
	Functional
	Content
	Other
)

func (c POSClass) String() string {
	switch c {
	case Functional:
		return "functional"
	case Content:
		return "content"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// posClasses covers the primary tags of the IPA and UniDic tag sets.
var posClasses = map[string]POSClass{
	"助詞":   Functional,
	"助動詞":  Functional,
	"名詞":   Content,
	"動詞":   Content,
	"形容詞":  Content,
	"副詞":   Content,
	"代名詞":  Other,
	"形状詞":  Other,
	"連体詞":  Other,
	"接続詞":  Other,
	"感動詞":  Other,
	"接頭詞":  Other,
	"接頭辞":  Other,
	"接尾辞":  Other,
	"記号":   Other,
	"補助記号": Other,
	"空白":   Other,
	"フィラー": Other,
	"その他":  Other,
}

// Classify maps a primary POS tag to its class. Tags outside the table are
// Unknown.
func Classify(tag string) POSClass {
	return posClasses[tag]
}
