// Package models holds the entities persisted by the store repositories.
package models
