// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/prodrec/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// LoadError reports a missing or malformed source file. Line is 0 when the
// error is not tied to a row.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	productColumns = []string{"id", "title", "category", "price", "rating", "review_count", "salesrank", "similar_ids"}
	// interactions only need the first three columns, the rest is ignored
	interactionColumns = []string{"user_id", "item_id", "rating"}

	columnAliases = map[string]string{
		"asin":          "id",
		"group":         "category",
		"avg_rating":    "rating",
		"total_reviews": "review_count",
		"num_reviews":   "review_count",
		"sales_rank":    "salesrank",
		"similar":       "similar_ids",
		"customer_id":   "user_id",
		"product_id":    "item_id",
	}
)

type csvFile struct {
	path    string
	reader  *csv.Reader
	columns map[string]int
}

func openCSV(path string, file io.Reader, required []string) (*csvFile, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Path: path, Err: errors.New("missing header")}
	} else if err != nil {
		return nil, &LoadError{Path: path, Line: 1, Err: err}
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, exist := columns[name]; !exist {
			columns[name] = i
		}
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, &LoadError{Path: path, Line: 1, Err: errors.NotFoundf("column %s", name)}
		}
	}
	return &csvFile{path: path, reader: reader, columns: columns}, nil
}

// next returns the next record and its line number, or io.EOF.
func (f *csvFile) next() ([]string, int, error) {
	record, err := f.reader.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	if err != nil {
		line := 0
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			line = parseErr.StartLine
		}
		return nil, line, &LoadError{Path: f.path, Line: line, Err: err}
	}
	line, _ := f.reader.FieldPos(0)
	return record, line, nil
}

func (f *csvFile) field(record []string, name string) string {
	i, ok := f.columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseNumber(name, value string) (float64, error) {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, errors.NotValidf("%s %q", name, value)
	}
	return number, nil
}

func parseCount(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		// counts exported as floats, e.g. "12.0"
		f, err := parseNumber(name, value)
		if err != nil || f != math.Trunc(f) {
			return 0, errors.NotValidf("%s %q", name, value)
		}
		number = int(f)
	}
	return number, nil
}

func parseProduct(f *csvFile, record []string, delimiter string) (Product, error) {
	var (
		p   Product
		err error
	)
	p.ID = f.field(record, "id")
	p.Title = f.field(record, "title")
	p.Category = f.field(record, "category")
	if p.Price, err = parseNumber("price", f.field(record, "price")); err != nil {
		return p, err
	}
	if p.Rating, err = parseNumber("rating", f.field(record, "rating")); err != nil {
		return p, err
	}
	if p.ReviewCount, err = parseCount("review_count", f.field(record, "review_count")); err != nil {
		return p, err
	}
	if p.SalesRank, err = parseCount("salesrank", f.field(record, "salesrank")); err != nil {
		return p, err
	}
	if p.SalesRank < 0 {
		p.SalesRank = 0
	}
	if similar := f.field(record, "similar_ids"); similar != "" {
		p.SimilarIDs = lo.FilterMap(strings.Split(similar, delimiter), func(id string, _ int) (string, bool) {
			id = strings.TrimSpace(id)
			return id, id != ""
		})
	}
	return p, p.Validate()
}

// LoadProducts reads the product table. Any bad row or duplicate id fails the load.
func LoadProducts(path, delimiter string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()
	catalog, err := ReadProducts(path, file, delimiter)
	if err != nil {
		return nil, err
	}
	log.Logger().Info("load products", zap.String("path", path), zap.Int("products", catalog.Len()))
	return catalog, nil
}

// ReadProducts parses a product table from r. Name is used in errors.
func ReadProducts(name string, r io.Reader, delimiter string) (*Catalog, error) {
	if delimiter == "" {
		delimiter = "|"
	}
	f, err := openCSV(name, r, productColumns[:6])
	if err != nil {
		return nil, err
	}
	var products []Product
	lines := make(map[string]int)
	for {
		record, line, err := f.next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		p, err := parseProduct(f, record, delimiter)
		if err != nil {
			return nil, &LoadError{Path: name, Line: line, Err: err}
		}
		if first, exist := lines[p.ID]; exist {
			return nil, &LoadError{Path: name, Line: line,
				Err: errors.AlreadyExistsf("product %s (first defined at line %d)", p.ID, first)}
		}
		lines[p.ID] = line
		products = append(products, p)
	}
	catalog, err := NewCatalog(products)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	return catalog, nil
}

// LoadInteractions reads the interaction table. Rows referencing products
// absent from the catalog are dropped and counted.
func LoadInteractions(path string, catalog *Catalog, policy DuplicatePolicy) (*Interactions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer file.Close()
	interactions, err := ReadInteractions(path, file, catalog, policy)
	if err != nil {
		return nil, err
	}
	log.Logger().Info("load interactions",
		zap.String("path", path),
		zap.Int("users", interactions.Matrix().CountUsers()),
		zap.Int("items", interactions.Matrix().CountItems()),
		zap.Int("interactions", interactions.Len()),
		zap.Int("duplicates", interactions.Duplicates()),
		zap.String("duplicate_policy", policy.String()))
	if interactions.Orphans() > 0 {
		log.Logger().Warn("drop orphan interactions",
			zap.String("path", path), zap.Int("orphans", interactions.Orphans()))
	}
	return interactions, nil
}

// ReadInteractions parses an interaction table from r. Name is used in errors.
func ReadInteractions(name string, r io.Reader, catalog *Catalog, policy DuplicatePolicy) (*Interactions, error) {
	f, err := openCSV(name, r, interactionColumns)
	if err != nil {
		return nil, err
	}
	var (
		rows    []Interaction
		users   []string
		orphans int
	)
	for {
		record, line, err := f.next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		row := Interaction{
			UserID: f.field(record, "user_id"),
			ItemID: f.field(record, "item_id"),
		}
		if row.UserID == "" || row.ItemID == "" {
			return nil, &LoadError{Path: name, Line: line, Err: errors.NotValidf("empty user or item id")}
		}
		if row.Rating, err = parseNumber("rating", f.field(record, "rating")); err != nil {
			return nil, &LoadError{Path: name, Line: line, Err: err}
		}
		users = append(users, row.UserID)
		if !catalog.Contains(row.ItemID) {
			orphans++
			continue
		}
		rows = append(rows, row)
	}
	interactions, err := NewInteractions(rows, policy, users...)
	if err != nil {
		return nil, &LoadError{Path: name, Err: err}
	}
	interactions.orphans = orphans
	return interactions, nil
}

// WriteProducts writes products in the format read by ReadProducts.
func WriteProducts(w io.Writer, products []Product, delimiter string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(productColumns); err != nil {
		return errors.Trace(err)
	}
	for _, p := range products {
		salesRank := ""
		if p.Ranked() {
			salesRank = strconv.Itoa(p.SalesRank)
		}
		if err := writer.Write([]string{
			p.ID,
			p.Title,
			p.Category,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			strconv.FormatFloat(p.Rating, 'f', 1, 64),
			strconv.Itoa(p.ReviewCount),
			salesRank,
			strings.Join(p.SimilarIDs, delimiter),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}

// WriteInteractions writes interactions in the format read by ReadInteractions.
func WriteInteractions(w io.Writer, interactions []Interaction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(interactionColumns); err != nil {
		return errors.Trace(err)
	}
	for _, i := range interactions {
		if err := writer.Write([]string{i.UserID, i.ItemID, strconv.FormatFloat(i.Rating, 'f', -1, 64)}); err != nil {
			return errors.Trace(err)
		}
	}
	writer.Flush()
	return errors.Trace(writer.Error())
}
