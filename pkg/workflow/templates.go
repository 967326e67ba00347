package workflow

import (
	"fmt"
	"strconv"

	"github.com/dukex/studioflow/pkg/models"
)

type stepTemplate struct {
	kind        models.StepKind
	description string
	dependsOn   []int
}

var templates = map[models.ContentType][]stepTemplate{
	models.ContentTypeDesign: {
		{kind: models.StepKindDesign, description: "Design the poster"},
	},
	models.ContentTypeVideo: {
		{kind: models.StepKindVideo, description: "Edit the video"},
	},
	models.ContentTypeCampaign: {
		{kind: models.StepKindDesign, description: "Design the campaign poster"},
		{kind: models.StepKindVideo, description: "Edit the campaign video"},
		{kind: models.StepKindAnalysis, description: "Analyse the produced assets together", dependsOn: []int{0, 1}},
		{kind: models.StepKindOptimization, description: "Plan distribution and monetization", dependsOn: []int{2}},
	},
}

// StepsFor synthesizes the step list of a content type. Step ids are the
// kind followed by the 1-based position, e.g. "analysis-3".
func StepsFor(contentType models.ContentType) ([]*models.Step, error) {
	tmpl, ok := templates[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	ids := make([]string, len(tmpl))
	for i, t := range tmpl {
		ids[i] = string(t.kind) + "-" + strconv.Itoa(i+1)
	}

	steps := make([]*models.Step, 0, len(tmpl))

	for i, t := range tmpl {
		deps := make([]string, 0, len(t.dependsOn))
		for _, d := range t.dependsOn {
			deps = append(deps, ids[d])
		}

		steps = append(steps, &models.Step{
			ID:           ids[i],
			Kind:         t.kind,
			Description:  t.description,
			Dependencies: deps,
		})
	}

	return steps, nil
}
