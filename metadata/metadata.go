// seehuhn.de/go/pdfmerge - a library for merging PDF files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package metadata reads and writes the document information dictionary and
// the XMP metadata stream of a PDF document.
package metadata

import (
	"bytes"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"

	"seehuhn.de/go/pdfmerge/pdf"
)

// PDF 2.0 sections: 14.3 14.3.3

// Info holds document metadata.  Empty fields are ignored by [Stamp].
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Creator is the name of the application which created the original
	// document.
	Creator string

	// Producer is the name of the application which wrote the PDF file.
	Producer string

	CreationDate time.Time
	ModDate      time.Time
}

// Stamp adds the metadata in info to the document.
//
// Entries in an existing document information dictionary are kept unless
// info overrides them.  For PDF 1.4 and newer, an XMP metadata stream is
// attached to the document catalog as well, replacing any previous one.
func Stamp(d *pdf.Data, info *Info) error {
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}

	infoDict := pdf.Dict{}
	if old, err := pdf.GetDict(d, d.Trailer["Info"]); err == nil && old != nil {
		infoDict = maps.Clone(old)
	}
	infoRef, ok := d.Trailer["Info"].(pdf.Reference)
	if !ok {
		infoRef = d.Alloc()
	}

	setText := func(key pdf.Name, val string) {
		if val != "" {
			infoDict[key] = pdf.TextString(val)
		}
	}
	setText("Title", info.Title)
	setText("Author", info.Author)
	setText("Subject", info.Subject)
	setText("Keywords", info.Keywords)
	setText("Creator", info.Creator)
	setText("Producer", info.Producer)
	if !info.CreationDate.IsZero() {
		infoDict["CreationDate"] = pdf.Date(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		infoDict["ModDate"] = pdf.Date(info.ModDate)
	}
	d.Put(infoRef, infoDict)
	d.Trailer["Info"] = infoRef

	if d.Version < pdf.V1_4 {
		return nil
	}

	packet, err := info.packet(d.Version)
	if err != nil {
		return err
	}
	body := &bytes.Buffer{}
	err = packet.Write(body, &xmp.PacketOptions{Pretty: true})
	if err != nil {
		return err
	}
	stmRef := d.Alloc()
	d.Put(stmRef, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("Metadata"),
			"Subtype": pdf.Name("XML"),
		},
		Data: body.Bytes(),
	})

	rootRef, _ := d.Root()
	newCatalog := maps.Clone(catalog)
	newCatalog["Metadata"] = stmRef
	d.Put(rootRef, newCatalog)

	return nil
}

func (info *Info) packet(v pdf.Version) (*xmp.Packet, error) {
	dc := &xmp.DublinCore{}
	if info.Title != "" {
		dc.Title.Set(language.Und, info.Title)
	}
	if info.Author != "" {
		dc.Creator.Append(xmp.NewProperName(info.Author))
	}
	if info.Subject != "" {
		dc.Description.Set(language.Und, info.Subject)
	}

	basic := &xmp.Basic{}
	if !info.CreationDate.IsZero() {
		basic.CreateDate = xmp.NewDate(info.CreationDate)
	}
	if !info.ModDate.IsZero() {
		basic.ModifyDate = xmp.NewDate(info.ModDate)
	}

	pdfInfo := &PDF{
		PDFVersion: xmp.NewText(v.String()),
	}
	if info.Keywords != "" {
		pdfInfo.Keywords = xmp.NewText(info.Keywords)
	}
	if info.Producer != "" {
		pdfInfo.Producer = xmp.NewAgentName(info.Producer)
	}

	packet := xmp.NewPacket()
	err := packet.Set(dc, basic, pdfInfo)
	if err != nil {
		return nil, err
	}
	return packet, nil
}

// PDF is the XMP namespace for PDF metadata.
type PDF struct {
	_          xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_          xmp.Prefix    `xmp:"pdf"`
	Keywords   xmp.Text
	PDFVersion xmp.Text
	Producer   xmp.AgentName
	Trapped    xmp.Text
}

// Read returns the contents of the document information dictionary.
// If the document has no information dictionary, an empty Info is returned.
func Read(d *pdf.Data) (*Info, error) {
	info := &Info{}
	dict, err := pdf.GetDict(d, d.Trailer["Info"])
	if err != nil {
		return nil, err
	}

	getText := func(key pdf.Name) string {
		obj, err := pdf.Resolve(d, dict[key])
		if err != nil {
			return ""
		}
		s, _ := obj.(pdf.String)
		return s.AsTextString()
	}
	info.Title = getText("Title")
	info.Author = getText("Author")
	info.Subject = getText("Subject")
	info.Keywords = getText("Keywords")
	info.Creator = getText("Creator")
	info.Producer = getText("Producer")
	info.CreationDate, _ = parseDate(getText("CreationDate"))
	info.ModDate, _ = parseDate(getText("ModDate"))

	return info, nil
}

// Title returns the title of the document, or the empty string if no title
// is set.
func Title(d *pdf.Data) string {
	info, err := Read(d)
	if err != nil {
		return ""
	}
	return info.Title
}

// XMP returns the XMP metadata packet of the document, or nil if the
// document has no metadata stream.
func XMP(d *pdf.Data) (*xmp.Packet, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	obj, err := pdf.Resolve(d, catalog["Metadata"])
	if err != nil {
		return nil, err
	}
	stm, ok := obj.(*pdf.Stream)
	if !ok {
		return nil, nil
	}
	body, err := stm.Decode()
	if err != nil {
		return nil, err
	}
	return xmp.Read(bytes.NewReader(body))
}
