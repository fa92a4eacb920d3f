package ai

import (
	"fmt"
	"strings"
)

const (
	advocacySystemPrompt = "You are Duende, an assistant that protects people's time and wellbeing by managing their calendar. Reply with the message text only."
	alertSystemPrompt    = "You are Duende, an assistant that helps people notice when their calendar is wearing them down. Reply with the message text only."
)

func buildAdvocacyPrompt(mc MessageContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, warm email on behalf of %s.\n\n", mc.UserName)
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Issue: %s\n", mc.ViolationDescription)
	fmt.Fprintf(&b, "- Suggested action: %s\n", mc.SuggestedAction)
	if mc.RecipientName != "" {
		fmt.Fprintf(&b, "- Recipient: %s\n", mc.RecipientName)
	}
	if mc.MeetingTitle != "" {
		fmt.Fprintf(&b, "- Meeting: %q\n", mc.MeetingTitle)
	}
	b.WriteString("\nWrite a brief, friendly email (2-3 sentences max) that:\n")
	fmt.Fprintf(&b, "1. Starts with \"hi [name], duende here for %s\"\n", mc.UserName)
	b.WriteString("2. Explains the situation simply (they're overbooked / need to walk / need lunch)\n")
	b.WriteString("3. Makes a specific, kind request\n")
	b.WriteString("4. Frames it as good for both people (more present, better conversation, more focused)\n")
	b.WriteString("5. Uses a lowercase, conversational tone\n")
	b.WriteString("6. Is warm but not apologetic\n\n")
	b.WriteString("Do NOT apologize, use corporate language, exceed 3 sentences, or add greetings or signatures.\n\n")
	b.WriteString("Just write the email body.")
	return b.String()
}

func buildAlertPrompt(mc MessageContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a brief alert for %s about a calendar threshold being crossed.\n\n", mc.UserName)
	fmt.Fprintf(&b, "Issue: %s\n", mc.ViolationDescription)
	fmt.Fprintf(&b, "Suggested fix: %s\n\n", mc.SuggestedAction)
	b.WriteString("Write a SHORT, direct alert (1-2 sentences) that:\n")
	b.WriteString("1. States the problem clearly\n")
	b.WriteString("2. Asks if they want Duende to help\n")
	b.WriteString("3. Uses a lowercase, friendly tone\n")
	b.WriteString("4. Is calm, not alarming\n")
	b.WriteString("5. Ends with a simple question like \"want me to suggest moving something?\"\n\n")
	b.WriteString("Do NOT be long-winded, use corporate language, include greetings, or be alarmist.\n\n")
	b.WriteString("Just write the alert message.")
	return b.String()
}
