// Copyright 2026 Jack Bister
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

package detect

import "github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"

type Kind string

const (
	KindMarkup     Kind = "markup"
	KindStructured Kind = "structured"
)

// Revision identifies the structural layout of a markup export.
type Revision string

const (
	// RevisionUnknown means the probe did not contain any known fingerprint. The markup parser
	// will then inspect the whole document.
	RevisionUnknown   Revision = ""
	RevisionGrid      Revision = "grid"
	RevisionOuterCell Revision = "outer-cell"
	RevisionCells     Revision = "cells"
)

// Schema names the record layout of a structured file.
type Schema string

const (
	SchemaNone             Schema = ""
	SchemaActivity         Schema = "activity"
	SchemaLikes            Schema = "likes"
	SchemaChromeHistory    Schema = "chrome_history"
	SchemaAppInstalls      Schema = "app_installs"
	SchemaLocationRecords  Schema = "location_records"
	SchemaSemanticLocation Schema = "semantic_location"
)

// Classification describes how a file should be parsed. It is derived once per file.
type Classification struct {
	Product  events.Product
	Kind     Kind
	Revision Revision
	Schema   Schema
	// Locale is the locale implied by a localized directory name in the path, or empty if the
	// path only contains names shared by several locales.
	Locale string
}
