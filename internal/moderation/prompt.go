package moderation

import (
	"fmt"

	"google.golang.org/genai"
)

const policyInstruction = `You are an experienced content moderator for a marketplace called iNeed. Your task is to analyze the title and description of a new listing and classify it strictly into one of three categories: 'published', 'review', or 'rejected'.

Prohibited Content Policies:
- Illegal drugs, controlled substances, and related paraphernalia.
- Firearms, ammunition, explosives, and accessories.
- Any content that exploits or endangers minors (pedophilia, child labor).
- Hate speech, harassment, or violence against individuals or groups.
- Stolen, counterfeit, or smuggled items.
- Sexual services and pornographic content.
- Personal information of third parties shared without consent.
- Spam, pyramid schemes, and misleading offers.

Classification Instructions:
- rejected: Use this category for any content that clearly violates the policies above. Be strict.
- review: Use this category if the content is ambiguous or suspicious, but not a clear violation. For example, the mention of a "knife" could be for a "kitchen knife sharpening" service (published) or for the sale of a weapon (rejected). In such cases, mark as 'review'.
- published: Use this category for all other requests that do not fall into 'rejected' or 'review'.

Respond with a JSON object of the form {"classification": "<published|review|rejected>"}.`

func classificationPrompt(req Request) string {
	return fmt.Sprintf(
		"Analyze the following content:\nTitle: %s\nDescription: %s",
		req.Title,
		req.Description,
	)
}

func classificationSchema() *genai.Schema {
	enum := make([]string, len(Labels))
	for i, l := range Labels {
		enum[i] = string(l)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"classification": {
				Type:        genai.TypeString,
				Enum:        enum,
				Description: "The moderation verdict for the listing.",
			},
		},
		Required: []string{"classification"},
	}
}
