package compiler

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type xmlBot struct {
	XMLName xml.Name   `xml:"bot"`
	Invalid []string   `xml:"invalid>message"`
	States  []xmlState `xml:"state"`
}

type xmlState struct {
	ID       string       `xml:"id,attr"`
	Messages []string     `xml:"message"`
	Keywords []xmlKeyword `xml:"keywords>keyword"`
}

type xmlKeyword struct {
	Text      string `xml:",chardata"`
	Target    string `xml:"target,attr"`
	ClassName string `xml:"className,attr"`
	Arg       string `xml:"arg,attr"`
	Variable  string `xml:"variable,attr"`
	Points    string `xml:"points,attr"`
	Learn     string `xml:"learn,attr"`
}

// decodeXML reads the classic layout:
//
//	<bot>
//	  <invalid><message>...</message></invalid>
//	  <state id="0">
//	    <message>...</message>
//	    <keywords><keyword target="1" variable="name" points="1">(\w+)</keyword></keywords>
//	  </state>
//	</bot>
func decodeXML(data []byte) (*Definition, error) {
	var bot xmlBot
	if err := xml.Unmarshal(data, &bot); err != nil {
		return nil, fmt.Errorf("failed to parse xml: %w", err)
	}

	def := &Definition{Invalid: trimAll(bot.Invalid)}
	for _, s := range bot.States {
		spec := StateSpec{ID: s.ID, Messages: trimAll(s.Messages)}
		for _, k := range s.Keywords {
			points := 0
			if p := strings.TrimSpace(k.Points); p != "" {
				n, err := strconv.Atoi(p)
				if err != nil {
					return nil, fmt.Errorf("state %s keyword %q: points %q: %w", s.ID, k.Text, p, err)
				}
				points = n
			}
			spec.Keywords = append(spec.Keywords, KeywordSpec{
				Keyword:   strings.TrimSpace(k.Text),
				Target:    k.Target,
				ClassName: k.ClassName,
				Arg:       k.Arg,
				Variable:  k.Variable,
				Points:    points,
				Learn:     k.Learn,
			})
		}
		def.States = append(def.States, spec)
	}
	return def, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
