package mcpserver

import (
	"encoding/json"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how to install/run the MCP server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a positional or named command-line argument.
type Argument struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns the indented server.json for version.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.carbonsense/carbonsense",
		Title:       "CarbonSense",
		Description: "Carbon cost estimates and lower-cost rewrites for JavaScript and TypeScript code",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/carbonsense/carbonsense",
			Source: "github",
		},
		Packages: []Package{{
			RegistryType: "oci",
			Identifier:   "ghcr.io/carbonsense/carbonsense:" + version,
			PackageArguments: []Argument{
				{Type: "positional", Value: "mcp"},
				{
					Type:        "named",
					Name:        "--config",
					Description: "Path to a carbonsense config file",
				},
			},
			Transport: Transport{Type: "stdio"},
		}},
	}, "", "  ")
}
