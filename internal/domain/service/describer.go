package service

import "context"

// DescribeInput is what a describer may look at
type DescribeInput struct {
	Name        string
	Readme      string
	TechStack   []string
	ProjectType string
}

// Describer writes a one-sentence summary of a project
type Describer interface {
	Describe(ctx context.Context, in DescribeInput) (string, error)
}
