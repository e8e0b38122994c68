package core

import (
	"context"
	"strings"
	"sync"
)

// fakeLLM answers Complete with reply(system, prompt) and records every call.
type fakeLLM struct {
	mu      sync.Mutex
	reply   func(system, prompt string) (string, error)
	embed   func(text string) ([]float32, error)
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.reply(system, prompt)
}

func (f *fakeLLM) Embed(_ context.Context, text string) ([]float32, error) {
	return f.embed(text)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// echoLLM returns a fixed answer for any prompt.
func echoLLM(answer string) *fakeLLM {
	return &fakeLLM{reply: func(string, string) (string, error) { return answer, nil }}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
