package report

import "fmt"

// BuildLightPrompt asks for a digest-style report: categorical bullet
// lists over the packed context, per spec §4.9 step 4.
func BuildLightPrompt(packedContext string) string {
	return fmt.Sprintf(`You are writing a daily digest over the sources below. Each source is
labeled [Tn @handle] and may include an "insight:" line with prior
analysis.

Produce a digest-style report organized as categorical bullet lists
(e.g. Market Moves, Security & Governance, Product Updates, Community).
Keep each bullet to one or two sentences. Cite sources inline using
[Source: Tn] immediately after any claim drawn from that source.

Sources:
%s`, packedContext)
}

// BuildDeepPrompt asks for a five-section editorial analysis with
// mandatory citations, per spec §4.9 step 4.
func BuildDeepPrompt(packedContext string) string {
	return fmt.Sprintf(`You are writing an editorial analysis over the sources below. Each
source is labeled [Tn @handle] and may include an "insight:" line with
prior analysis.

Produce a five-section report:
  1. Overview
  2. Market & Technical Developments
  3. Governance & Security
  4. Community & Sentiment
  5. Outlook

Every factual claim MUST cite its source using [Source: Tn] immediately
after the claim. Do not invent a Tn label that isn't listed below.

Sources:
%s`, packedContext)
}

// BuildKOLPrompt asks for a single-account profile report: a narrative
// read of one handle's posting history rather than a cross-account
// digest, per spec §4.9's MONTHLY_KOL variant.
func BuildKOLPrompt(handle, packedContext string) string {
	return fmt.Sprintf(`You are writing a profile report on @%s based on the sources below.
Each source is labeled [Tn @%s] and may include an "insight:" line with
prior analysis.

Produce a narrative report covering:
  1. Recurring themes and focus areas
  2. Notable shifts in stance or activity over the window
  3. Overall signal quality and credibility assessment

Cite sources inline using [Source: Tn] immediately after any claim drawn
from that source. Do not invent a Tn label that isn't listed below.

Sources:
%s`, handle, handle, packedContext)
}
