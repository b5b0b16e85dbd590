// Package misconception explains wrong answers to students, using the
// misconception tag of the selected option and, when configured, an LLM.
package misconception

import "sort"

// Misconception is a known error pattern an incorrect option can reveal.
type Misconception struct {
	Tag         string
	Label       string
	Description string
	// Fallback is shown when no generated explanation is available.
	Fallback string
}

// GenericFallback is used for untagged options and unknown tags.
const GenericFallback = "It's great that you're working through this problem! Consider approaching it from a different angle. " +
	"Looking at the fundamental principles behind this concept can help clarify which answer best fits the question."

var taxonomy = []Misconception{
	{
		Tag:         "conceptual-misunderstanding",
		Label:       "Conceptual misunderstanding",
		Description: "Holds an inaccurate model of the underlying idea",
		Fallback: "It's great that you're thinking about this concept! When we approach this type of problem, it helps to focus on the fundamental principles. " +
			"Consider how the core idea applies specifically in this context, and you'll find that another approach leads to the correct answer.",
	},
	{
		Tag:         "calculation-error",
		Label:       "Calculation error",
		Description: "Understands the method but slips in the arithmetic",
		Fallback: "You're on the right track with your understanding! Sometimes in calculations, small details can lead us to different results. " +
			"Try reviewing the steps of your calculation to see if there might be another way to solve this problem.",
	},
	{
		Tag:         "logical-fallacy",
		Label:       "Logical fallacy",
		Description: "Draws a conclusion that does not follow from the premises",
		Fallback: "Your thought process shows good engagement with the material! When working through logical problems, it can be helpful to check each step carefully. " +
			"Consider the relationship between the different elements in this problem.",
	},
	{
		Tag:         "terminological-confusion",
		Label:       "Terminological confusion",
		Description: "Mixes up similar-sounding terms or definitions",
		Fallback: "You're demonstrating good thinking here! Sometimes similar terms can be confusing. " +
			"Let's clarify the specific meaning of the key terms in this question to help identify the correct answer.",
	},
	{
		Tag:         "scope-error",
		Label:       "Scope error",
		Description: "Applies a rule outside the conditions where it holds",
		Fallback: "Your answer shows you're engaging with the material! It's important to consider the specific context where these principles apply. " +
			"Think about whether this particular scenario matches the conditions needed for this concept.",
	},
	{
		Tag:         "causation-correlation",
		Label:       "Causation vs correlation",
		Description: "Treats things that happen together as cause and effect",
		Fallback: "That's thoughtful reasoning! When examining relationships between events or factors, it's helpful to distinguish between correlation (things happening together) " +
			"and causation (one thing causing another). Consider what evidence would be needed to determine a cause.",
	},
	{
		Tag:         "overgeneralization",
		Label:       "Overgeneralization",
		Description: "Extends a rule to cases where it no longer applies",
		Fallback: "You're showing good understanding of the general concept! Some principles that work in many situations have specific exceptions or limitations. " +
			"Consider whether this particular case might be one where the general rule needs modification.",
	},
	{
		Tag:         "contextual-application",
		Label:       "Contextual application",
		Description: "Knows the idea but misapplies it to the situation described",
		Fallback: "You've got a good grasp of the concept! Sometimes the context changes how we apply certain principles. " +
			"Think about what specific aspects of this scenario might affect which approach works best.",
	},
}

var byTag map[string]*Misconception

func init() {
	byTag = make(map[string]*Misconception, len(taxonomy))
	for i := range taxonomy {
		byTag[taxonomy[i].Tag] = &taxonomy[i]
	}
}

// Get returns the misconception for tag, or nil.
func Get(tag string) *Misconception {
	return byTag[tag]
}

// All returns every misconception ordered by tag.
func All() []Misconception {
	out := make([]Misconception, len(taxonomy))
	copy(out, taxonomy)
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

// FallbackFor returns the canned explanation for tag.
func FallbackFor(tag string) string {
	if m := Get(tag); m != nil {
		return m.Fallback
	}
	return GenericFallback
}
