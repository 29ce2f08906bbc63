// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package report assembles news-report prompts from retrieved documents.
// The LLM call that consumes them is left to the caller.
package report

import (
	"fmt"
	"strings"

	"github.com/poiesic/newsdex/core"
)

// Length steers how long the generated report should be.
type Length string

const (
	Short  Length = "short"
	Medium Length = "medium"
	Long   Length = "long"
)

// SystemPrompt is the fixed system message for report generation.
const SystemPrompt = `You are an expert on all things news and current events.

As such, people come and ask you questions about what is happening in the
world. You will get either a question or the name of a news event, and you
must provide a comprehensive report on the topic using ONLY the provided
context. They will also give you a notion of how long they want the report
to be.

Short ~ your response should be bullet points
Medium ~ your response should be about 5-6 sentences and just hit on main points.
Long ~ as many as you need to flesh out the topic.

You will have context to help you answer the question, but you must use your
own words since you want to respect the original author's work.

If you don't have sufficient or relevant context to answer the request, you
can simply say that you don't have enough information to provide a response.

Your response should just fulfill their request and nothing more.`

// Prompt is a fully assembled report request.
type Prompt struct {
	// System is the system message.
	System string

	// User is the user message carrying the question and context block.
	User string

	// Sources is a human-readable attribution list for the documents the
	// context was built from, suitable for appending to the report.
	Sources string
}

// Build assembles a report prompt for the question from the retrieved
// matches, in match order.
func Build(question string, matches []core.Match, length Length) Prompt {
	if length == "" {
		length = Short
	}

	var context strings.Builder
	for _, match := range matches {
		fmt.Fprintf(&context, "Title: %s\n\nText: %s\n------------------\n",
			match.Document.Title, match.Document.Text)
	}

	user := fmt.Sprintf(`Here is what you will report on: %s

and here is the context:
%s
Your report should be %s.`, question, context.String(), length)

	return Prompt{
		System:  SystemPrompt,
		User:    user,
		Sources: buildSources(matches),
	}
}

func buildSources(matches []core.Match) string {
	var b strings.Builder
	b.WriteString("SOURCES:\n")
	for _, match := range matches {
		doc := match.Document

		authors := "Unknown"
		if len(doc.Authors) > 0 {
			authors = strings.Join(doc.Authors, ", ")
		}
		fmt.Fprintf(&b, "  - %q by %s\n    %s\n", doc.Title, authors, doc.URL)
	}
	return b.String()
}
