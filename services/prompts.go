package services

import (
	"fmt"
	"strings"
)

const (
	summarySystemPrompt = `You are a study assistant that writes faithful summaries of course material.
Rules:
- Keep every important idea, do not add information that is not in the text
- Plain text only, no markdown, no bold or italics
- Do not comment or explain, return only the summary`

	quizSystemPrompt = `You are an exam-prep assistant that writes multiple-choice questions from course material.
Return ONLY valid JSON, no other text.`

	flashcardSystemPrompt = `You are an exam-prep assistant that writes flashcards from course material.
Return ONLY valid JSON, no other text.`

	notesChatSystemPrompt = `You are a helpful study assistant. Your role is to help students understand their notes by:
- Providing clear explanations of concepts
- Summarizing content when asked
- Simplifying complex topics
- Extracting key points
- Defining terms based on the notes
- Answering follow-up questions

Always base your responses ONLY on the notes provided by the user. If the notes don't contain relevant information, politely say so.`

	quizChatSystemPrompt = `You are PrepWise, an AI tutor. Your role is to help students understand quiz questions by:
- Explaining why the correct answer is correct
- Explaining why wrong answers are wrong (if applicable)
- Breaking down concepts related to the question
- Providing follow-up clarification
- Giving simple examples to reinforce learning

Use a friendly, encouraging tone. Be clear and concise. Help students learn from their mistakes without being condescending.`
)

// BuildPrompt trả về (system, user) prompt cho một tác vụ
func BuildPrompt(task Task, p Payload) (string, string) {
	switch task {
	case TaskSummarize:
		return summarySystemPrompt, fmt.Sprintf("Summarize the following text in one clear, concise paragraph:\n\n%s", p.Text)
	case TaskMakeQuiz:
		return quizSystemPrompt, fmt.Sprintf(`Create %d multiple-choice questions from the text below.

Requirements:
- Each question has exactly 4 options
- Exactly one option is correct, randomize its position
- Questions must be answerable from the text alone

Return a JSON array with this exact structure:
[
  {
    "question": "What is ...?",
    "options": ["option A", "option B", "option C", "option D"],
    "answer_index": 0
  }
]

Text:
%s`, p.Count, p.Text)
	case TaskMakeFlashcards:
		return flashcardSystemPrompt, fmt.Sprintf(`Create %d flashcards from the text below.
Each flashcard has:
- "front": a question, term or concept
- "back": the answer or a short explanation

Return a JSON array like:
[
  {"front": "Question 1?", "back": "Answer 1"},
  {"front": "Question 2?", "back": "Answer 2"}
]

Text:
%s`, p.Count, p.Text)
	case TaskChat:
		if p.Mode == ChatQuiz {
			return quizChatSystemPrompt, fmt.Sprintf("%s\n\nUser's question: %s\n\nPlease provide a helpful response about this quiz question.",
				quizChatContext(p.Quiz), p.Message)
		}
		return notesChatSystemPrompt, fmt.Sprintf("The user provided these notes:\n\n%s\n\nUser's question: %s\n\nPlease provide a helpful response based on the notes above.",
			p.Text, p.Message)
	}
	return "", p.Text
}

func quizChatContext(q *QuizChatContext) string {
	if q == nil {
		return "The user is asking about a quiz."
	}
	var b strings.Builder
	if q.Question != "" && len(q.Options) > 0 && q.CorrectAnswer != "" {
		fmt.Fprintf(&b, "Here is the quiz question:\n\nQuestion: %s\n\nOptions:\n", q.Question)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%c. %s\n", 'A'+i, opt)
		}
		fmt.Fprintf(&b, "\nCorrect Answer: %s", q.CorrectAnswer)
		if q.UserAnswer != "" {
			fmt.Fprintf(&b, "\nUser's Answer: %s", q.UserAnswer)
		}
		if q.TopicName != "" {
			fmt.Fprintf(&b, "\nTopic: %s", q.TopicName)
		}
		if q.Explanation != "" {
			fmt.Fprintf(&b, "\nExplanation: %s", q.Explanation)
		}
		return b.String()
	}

	b.WriteString("The user is asking about a quiz")
	if q.QuizName != "" {
		fmt.Fprintf(&b, " titled: %s", q.QuizName)
	}
	if q.TopicName != "" {
		fmt.Fprintf(&b, " on the topic: %s", q.TopicName)
	}
	if len(q.AllQuestions) > 0 {
		fmt.Fprintf(&b, "\n\nThe quiz contains %d questions:\n", len(q.AllQuestions))
		for i, item := range q.AllQuestions {
			if i == 10 {
				break
			}
			correct := "N/A"
			if item.CorrectIndex >= 0 && item.CorrectIndex < len(item.Options) {
				correct = item.Options[item.CorrectIndex]
			}
			fmt.Fprintf(&b, "\nQuestion %d: %s\nOptions: %s\nCorrect Answer: %s\n", i+1, item.Question, strings.Join(item.Options, ", "), correct)
		}
	}
	b.WriteString("\nPlease help the user understand the quiz concepts, topics, or answer general questions about the quiz.")
	return b.String()
}
