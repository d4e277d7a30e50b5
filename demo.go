/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package relmap

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/tomoncle/relmap/loader"
	"github.com/tomoncle/relmap/models"
)

const (
	demoPattern = "[mt]"
	demoMusicID = 777
)

// DemoResult counts what RunDemo wrote.
type DemoResult struct {
	MusicSaved    int64
	VisitorsSaved int64
	BooksSaved    int64
}

// RunDemo runs the four demo tasks against app and prints their output to
// out:
//
//  1. list all music
//  2. list music whose title does not match [mt], ignoring case
//  3. save music 777
//  4. save the visitors from visitorsFile and their distinct favourite books
func RunDemo(ctx context.Context, app *App, visitorsFile string, out io.Writer) (*DemoResult, error) {
	result := &DemoResult{}

	fmt.Fprintln(out, "\n--- Task 1 ---")
	all, err := app.Music.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	printAll(out, all)

	fmt.Fprintln(out, "\n--- Task 2 ---")
	other, err := app.Music.FindAllByTitleNotMatching(ctx, demoPattern)
	if err != nil {
		return nil, err
	}
	printAll(out, other)

	fmt.Fprintln(out, "\n--- Task 3 ---")
	n, err := app.Music.Save(ctx, &models.Music{ID: demoMusicID, Title: "Never gonna give you up"})
	if err != nil {
		return nil, err
	}
	result.MusicSaved = n
	if n == 1 {
		fmt.Fprintln(out, "Music added")
	} else {
		fmt.Fprintln(out, "Music not added")
	}

	fmt.Fprintln(out, "\n--- Task 4 ---")
	visitors, err := loader.LoadVisitors(visitorsFile)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "Visitors list:")
	printAll(out, visitors)

	for _, v := range visitors {
		v.ID = uuid.New()
	}
	if result.VisitorsSaved, err = NewService[models.Visitor, uuid.UUID](app.Visitors).Save(ctx, visitors...); err != nil {
		return nil, fmt.Errorf("save visitors: %w", err)
	}

	books := loader.UniqueBooks(visitors)
	for _, b := range books {
		b.ID = uuid.New()
	}
	if result.BooksSaved, err = NewService[models.Book, uuid.UUID](app.Books).Save(ctx, books...); err != nil {
		return nil, fmt.Errorf("save books: %w", err)
	}
	app.logger.Info("Demo finished",
		"visitors", result.VisitorsSaved,
		"books", result.BooksSaved,
	)
	return result, nil
}

func printAll[T fmt.Stringer](out io.Writer, items []T) {
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
}
