package rewrite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TobiSchelling/KeigoBench/internal/corpus"
)

// Contract selects the system prompt flavor.
type Contract string

const (
	// FewShot includes a worked example; used for short commonsense questions.
	FewShot Contract = "few-shot"
	// ZeroShot forbids examples; used for long structured legal questions.
	ZeroShot Contract = "zero-shot"
)

// ContractFor picks the contract matching a dataset format.
func ContractFor(format string) Contract {
	if format == "barexam" {
		return ZeroShot
	}
	return FewShot
}

const preamble = `# Role
You are an expert Japanese linguist specializing in sociolinguistics and strict grammatical transformations of Keigo (Honorifics).

# Task
%s Your goal is to rewrite this single question into %d specific variations based on "Politeness Levels" and "Grammatical Direction."

# Constraints
1. **Preserve Semantics:** You must NOT change the core meaning, facts, or subjects of the question. The logical answer must remain exactly the same for all variations.
2. **Output Format:** You must output ONLY valid JSON. No markdown, no conversational filler.
3. **Keys:** The JSON object must contain exactly these keys: %s.
`

var registerGuides = map[corpus.Style]string{
	corpus.Casual: `**Casual (Tameguchi/Plain Form):** key "casual"
   - Tone: Direct, slightly commanding, or talking to a close friend.
   - Grammar: Dictionary form. No ` + "`desu/masu`" + `.
   - Endings: Use ` + "`da`, `ru`, `te`" + `, or command forms like ` + "`kotaero`" + `.`,
	corpus.Standard: `**Standard (Teineigo):** key "standard"
   - Tone: Polite but neutral. The standard "textbook" Japanese.
   - Grammar: ` + "`Desu/Masu`" + ` form.
   - Endings: ` + "`kudasai`, `masu ka`" + `.`,
	corpus.Sonkeigo: `**Respectful (Sonkeigo - Exalting the Listener):** key "sonkeigo"
   - Tone: Highly deferential to the listener who answers.
   - Grammar: Use Sonkeigo verbs to describe the listener's actions (thinking, answering).
   - Key Verbs: ` + "`O-kangae ni naru`, `Go-ran ni naru`, `Irassharu`" + `.
   - Phrasing: "Would you graciously be able to answer..." (` + "`O-kotae itadakemasu deshou ka`" + `).`,
	corpus.Kenjougo: `**Humble (Kenjougo - Lowering the Speaker):** key "kenjougo"
   - Tone: The speaker lowers themselves before the listener.
   - Grammar: Use Kenjougo verbs to describe the speaker's own actions (asking, presenting).
   - Key Verbs: ` + "`Ukagaimasu`, `Haiken shimasu`, `Sashiageru`" + `.
   - Phrasing: "I humbly permit myself to ask..." (` + "`Shitsumon sasete itadakimasu`" + `).`,
}

const exampleQuestion = "空が青い理由は何ですか？"

var exampleVariants = corpus.Variants{
	corpus.Casual:   "空が青い理由は何？教えろ。",
	corpus.Standard: "空が青い理由は何ですか？教えてください。",
	corpus.Sonkeigo: "空が青い理由について、どのようにお考えになりますか？",
	corpus.Kenjougo: "空が青い理由について、お伺い申し上げます。",
}

// SystemPrompt renders the behavioral contract for the given registers.
func SystemPrompt(contract Contract, styles []corpus.Style) string {
	keys := make([]string, len(styles))
	for i, s := range styles {
		keys[i] = fmt.Sprintf("%q", string(s))
	}

	task := "You will be provided with a question from a commonsense question-answering dataset."
	if contract == ZeroShot {
		task = `You will be provided with a complex Japanese legal question from a Bar Exam dataset. The question is provided in the following structured format: "科目：[Subject]...[Instruction]...[Question]".`
	}

	var b strings.Builder
	fmt.Fprintf(&b, preamble, task, len(styles), strings.Join(keys, ", "))
	if contract == ZeroShot {
		b.WriteString("4. **ZERO-SHOT:** Do not use any examples in your output.\n")
	}

	fmt.Fprintf(&b, "\n# The %d Variations\n", len(styles))
	for i, s := range styles {
		guide, ok := registerGuides[s]
		if !ok {
			guide = fmt.Sprintf("**%s:** key %q", s, string(s))
		}
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, guide)
	}

	if contract == FewShot {
		example := make(map[string]string, len(styles))
		for _, s := range styles {
			if v, ok := exampleVariants[s]; ok {
				example[string(s)] = v
			}
		}
		out, _ := json.MarshalIndent(example, "", "  ")
		fmt.Fprintf(&b, "# Few-Shot Example\n\n**Input:**\n%q\n\n**Output:**\n%s\n\n", exampleQuestion, out)
	}

	b.WriteString("# Input Data\nThe question to rewrite follows in the user message.\n")
	return b.String()
}

// UserPrompt wraps the source question.
func UserPrompt(question string) string {
	return "Rewrite this question:\n" + question
}
