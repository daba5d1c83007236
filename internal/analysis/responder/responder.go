// Package responder maps free-text input to one of the bot's canned replies.
package responder

import (
	"strings"

	"github.com/samber/lo"
)

// Topic names the keyword category an input was classified into.
type Topic string

const (
	Emergency        Topic = "emergency"
	MedicalAdvice    Topic = "medical_advice"
	DialysisBasics   Topic = "dialysis_basics"
	Diet             Topic = "diet"
	EmotionalSupport Topic = "emotional_support"
	VascularAccess   Topic = "vascular_access"
	Fallback         Topic = "default"
)

// Rule pairs a keyword set with the reply returned when any keyword matches.
type Rule struct {
	Topic    Topic    `json:"topic"`
	Keywords []string `json:"keywords"`
	Reply    string   `json:"-"`
}

// rules are evaluated top to bottom; the first rule with a matching keyword wins.
var rules = []Rule{
	{
		Topic:    Emergency,
		Keywords: []string{"emergency", "urgent", "911"},
		Reply:    "If this is a medical emergency, please call 911 or go to the nearest emergency room immediately. I cannot provide emergency medical guidance.",
	},
	{
		Topic:    MedicalAdvice,
		Keywords: []string{"should i", "can i skip", "medication", "pain", "symptom"},
		Reply: "I can help explain things generally, but I can't provide medical advice, diagnosis, or treatment decisions. " +
			"Please contact your dialysis nurse, nephrologist, or care team for anything specific to your health.\n\n" +
			"Is there something general about dialysis I can explain instead?",
	},
	{
		Topic:    DialysisBasics,
		Keywords: []string{"what is dialysis", "how does dialysis work"},
		Reply: "Dialysis is a treatment that does the work your kidneys can no longer do effectively. There are two main types:\n\n" +
			"**Hemodialysis:** Uses a machine to filter your blood outside your body, typically done 3 times per week at a dialysis center.\n\n" +
			"**Peritoneal Dialysis:** Uses the lining of your abdomen to filter blood inside your body, often done at home daily.\n\n" +
			"Both types remove waste, extra fluid, and balance minerals in your blood. Your care team will help determine which type is best for you.",
	},
	{
		Topic:    Diet,
		Keywords: []string{"diet", "eat", "food"},
		Reply: "Diet is important on dialysis. General principles include:\n\n" +
			"• **Protein:** Usually encouraged (lean meats, fish, eggs)\n" +
			"• **Potassium:** Often needs limiting (bananas, oranges, potatoes)\n" +
			"• **Phosphorus:** Usually restricted (dairy, nuts, beans)\n" +
			"• **Sodium:** Limited to control fluid and blood pressure\n" +
			"• **Fluids:** Often restricted based on urine output\n\n" +
			"Every person's needs are different. Please work with your renal dietitian for personalized guidance. " +
			"Would you like to know more about any specific nutrient?",
	},
	{
		Topic:    EmotionalSupport,
		Keywords: []string{"tired", "overwhelmed", "scared", "anxious"},
		Reply: "It's completely understandable to feel this way. Living with dialysis can be challenging, both physically and emotionally. " +
			"Here are some things that might help:\n\n" +
			"• **Connect with others:** Support groups can help you feel less alone\n" +
			"• **Take it one day at a time:** Break challenges into smaller steps\n" +
			"• **Celebrate small wins:** Every treatment completed is an achievement\n" +
			"• **Talk to your team:** They can provide resources for mental health support\n" +
			"• **Be kind to yourself:** You're doing something difficult and important\n\n" +
			"You're stronger than you know. Is there anything specific I can help explain or support you with?",
	},
	{
		Topic:    VascularAccess,
		Keywords: []string{"fistula", "catheter", "access"},
		Reply: "Vascular access is how blood is removed and returned during hemodialysis:\n\n" +
			"**AV Fistula:** A connection between an artery and vein, usually in the arm. This is the preferred long-term access.\n\n" +
			"**AV Graft:** A tube connecting an artery and vein. Used when fistulas aren't possible.\n\n" +
			"**Catheter:** A tube inserted into a large vein. Usually temporary.\n\n" +
			"Keeping your access clean and monitoring it daily is very important. Your care team will teach you how to care for yours properly.",
	},
}

const fallbackReply = "That's a great question! I can help with general information about:\n\n" +
	"• Dialysis types and procedures\n" +
	"• Diet and lifestyle basics\n" +
	"• Understanding medical terms\n" +
	"• Emotional support\n" +
	"• What to expect during treatment\n\n" +
	"Could you tell me more about what you'd like to know? And remember, for anything specific to your personal health, always check with your care team."

// Respond returns the canned reply for input. It never fails: unmatched input gets the
// default topic list.
func Respond(input string) string {
	return match(input).Reply
}

// Classify reports which topic Respond would answer with.
func Classify(input string) Topic {
	return match(input).Topic
}

// Reply returns the canned text for topic.
func Reply(topic Topic) string {
	if rule, ok := lo.Find(rules, func(r Rule) bool { return r.Topic == topic }); ok {
		return rule.Reply
	}
	return fallbackReply
}

// Rules returns the ordered keyword table, default topic last.
func Rules() []Rule {
	out := lo.Map(rules, func(r Rule, _ int) Rule {
		r.Keywords = append([]string(nil), r.Keywords...)
		return r
	})
	return append(out, Rule{Topic: Fallback, Reply: fallbackReply})
}

// match performs case-insensitive substring matching, so "painting" still hits "pain".
func match(input string) Rule {
	normalized := strings.ToLower(input)
	for _, rule := range rules {
		if lo.ContainsBy(rule.Keywords, func(keyword string) bool {
			return strings.Contains(normalized, keyword)
		}) {
			return rule
		}
	}
	return Rule{Topic: Fallback, Reply: fallbackReply}
}
