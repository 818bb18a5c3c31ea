package ai

import (
	"fmt"
	"strings"

	"studytrack/backend/internal/model"
)

// Override is a locally computed assistant reply that bypasses the completion
// endpoint. Delayed marks the identity responses, which are paced with an
// artificial 3-7 second wait to feel like thinking time.
type Override struct {
	Reply   string
	Delayed bool
}

// Phrasings that ask who trained or built the assistant.
var identityPhrases = []string{
	"who trained you",
	"who created you",
	"who made you",
	"who built you",
	"who build you",
	"who developed you",
	"your creator",
	"your developer",
	"your builder",
}

var identityResponses = []string{
	"Hello! I'm your AI Study Assistant, designed to help you excel in your academic journey. I'm equipped with comprehensive knowledge across various competitive exams like UPSC, NEET, JEE, and more. I can assist with concept explanations, practice questions, study strategies, and personalized guidance. I was built by Adarsh Tiwari, a passionate developer who understands the challenges of exam preparation.",
	"Hi there! I'm an AI-powered educational assistant created to support students in their exam preparation. My capabilities include providing detailed explanations, solving complex problems, creating practice tests, and offering study tips tailored to your specific exam needs. I was developed by Adarsh Tiwari to make quality education accessible to everyone.",
	"Greetings! I'm your dedicated AI Study Companion, trained to assist with various competitive exams and academic subjects. I can help you understand difficult concepts, provide step-by-step solutions, create study schedules, and answer your academic queries 24/7. I was created by Adarsh Tiwari with the vision of revolutionizing exam preparation.",
	"Hello! I'm an intelligent study assistant designed to be your academic partner. I specialize in competitive exam preparation, concept clarification, problem-solving, and providing personalized study guidance. My creator, Adarsh Tiwari, built me to help students achieve their academic goals more effectively.",
	"I'm your dedicated AI Study Assistant, specifically designed for competitive exam preparation! I can help with UPSC, NEET, JEE, and many other exams. My capabilities include detailed explanations, practice questions, study planning, and 24/7 academic support. I was thoughtfully created by Adarsh Tiwari to make exam preparation more effective and accessible.",
	"Nice to meet you! I'm an AI educational companion built to support your academic journey. I specialize in competitive exams, concept clarification, problem-solving, and personalized study guidance. I was developed by Adarsh Tiwari, who understands the challenges students face and wanted to create a helpful study partner.",
}

type personaRule struct {
	triggers         []string
	personalKeywords []string
	personalReply    string
	generalReply     string
}

var personaRules = []personaRule{
	{
		triggers:         []string{"who is adarsh", "about adarsh", "adarsh tiwari"},
		personalKeywords: []string{"personal", "family", "wife", "husband", "relationship"},
		personalReply:    "Adarsh Tiwari is an engineering graduate who is currently preparing for UPSC while being passionate about technology and development. He's a dedicated tech enthusiast who loves creating solutions that help others. On a personal note, he's happily committed to Divyani (also known as Misti), who is his life partner and biggest supporter in his journey.",
		generalReply:     "Adarsh Tiwari is an engineering graduate currently preparing for UPSC. He's a tech geek with a passion for creating educational tools and applications that help students in their academic journey. His combination of technical skills and understanding of competitive exam challenges makes him uniquely positioned to develop effective study solutions.",
	},
	{
		triggers:         []string{"who is divyani", "who is misti", "about divyani", "about misti"},
		personalKeywords: []string{"personal", "relationship", "adarsh", "boyfriend", "girlfriend"},
		personalReply:    "Divyani (also known as Misti) is a dedicated medical aspirant who is working hard to become an excellent doctor. She's incredibly passionate about healthcare and helping others. She's also Adarsh's life partner and provides great support and motivation in his endeavors. Together, they make a great team pursuing their respective dreams.",
		generalReply:     "Divyani, also known as Misti, is a medical aspirant with a bright future ahead. She's dedicated to her studies and has the potential to become one of the best doctors. Her commitment to healthcare and helping others is truly inspiring.",
	},
}

// Off-topic terms gated for the restricted exam tracks. The list carries the
// category names plus common concrete words, so "cricket match" or "movie
// review" trip it without an exact category phrase.
var offTopicTerms = []string{
	"gaming",
	"video game",
	"entertainment",
	"celebrity",
	"gossip",
	"sports score",
	"cricket",
	"football",
	"ipl",
	"movie",
	"bollywood",
	"fashion",
	"cooking recipe",
	"dating",
	"personal relationship",
}

// Only these two tracks restrict conversation topics.
var restrictedDomains = map[string]string{
	model.ExamUPSC:   "UPSC CSE and general academic topics",
	model.ExamNEETUG: "NEET UG and general science topics",
}

const FallbackReply = "I'm sorry, I'm having trouble connecting to the AI service right now. Please try again later."

// EvaluateOverrides checks the rule table against the latest user message, in
// fixed priority order: identity questions, then persona lookups, then the
// domain-relevance filter. pick selects an index in [0,n) for the identity
// response set. Returns nil when no rule fires and the completion endpoint
// should be called.
func EvaluateOverrides(message, examType string, pick func(n int) int) *Override {
	msg := strings.ToLower(message)

	if containsAny(msg, identityPhrases) {
		return &Override{
			Reply:   identityResponses[pick(len(identityResponses))],
			Delayed: true,
		}
	}

	for _, rule := range personaRules {
		if !containsAny(msg, rule.triggers) {
			continue
		}
		if containsAny(msg, rule.personalKeywords) {
			return &Override{Reply: rule.personalReply}
		}
		return &Override{Reply: rule.generalReply}
	}

	if domain, ok := restrictedDomains[examType]; ok && containsAny(msg, offTopicTerms) {
		return &Override{
			Reply: fmt.Sprintf("I'm specialized in %s preparation. I can help with questions related to %s. Please ask me something more relevant to your studies, and I'll be happy to help you with detailed explanations and guidance!", domain, domain),
		}
	}

	return nil
}

func containsAny(msg string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(msg, term) {
			return true
		}
	}
	return false
}
