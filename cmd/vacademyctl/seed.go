package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/campaign"
	"vacademy/internal/domain/course"
	"vacademy/internal/domain/customfield"
	"vacademy/internal/domain/template"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load an institute's fields, courses, campaigns, leads and templates from YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

// seedFile is the YAML layout read by seed.
type seedFile struct {
	InstituteID string         `yaml:"institute_id"`
	Fields      []seedField    `yaml:"custom_fields"`
	Courses     []seedCourse   `yaml:"courses"`
	Campaigns   []seedCampaign `yaml:"campaigns"`
	Templates   []seedTemplate `yaml:"templates"`
}

type seedField struct {
	ID        string `yaml:"id"`
	Key       string `yaml:"key"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	FormOrder int    `yaml:"form_order"`
}

type seedCourse struct {
	Name     string `yaml:"name"`
	Sessions []struct {
		Name   string `yaml:"name"`
		Levels []struct {
			Name     string `yaml:"name"`
			Duration int    `yaml:"duration_in_days"`
		} `yaml:"levels"`
	} `yaml:"sessions"`
}

type seedCampaign struct {
	Name     string   `yaml:"name"`
	Audience string   `yaml:"audience_id"`
	Status   string   `yaml:"status"`
	Fields   []string `yaml:"custom_fields"`
	Leads    []struct {
		FullName string            `yaml:"full_name"`
		Email    string            `yaml:"email"`
		Mobile   string            `yaml:"mobile"`
		Values   map[string]string `yaml:"values"`
	} `yaml:"leads"`
}

type seedTemplate struct {
	Name     string            `yaml:"name"`
	Channel  string            `yaml:"channel"`
	Subject  string            `yaml:"subject"`
	HTML     string            `yaml:"html"`
	Mappings map[string]string `yaml:"mappings"`
}

// seedSummary counts what a seed created.
type seedSummary struct {
	Fields, Courses, Campaigns, Leads, Templates int
}

func runSeed(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return errors.Wrap(err, "parse seed file")
	}
	if f.InstituteID == "" {
		return errors.New("seed file needs an institute_id")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := seed(cmd.Context(), a, f)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
		"seeded %s: %d fields, %d courses, %d campaigns, %d leads, %d templates\n",
		f.InstituteID, sum.Fields, sum.Courses, sum.Campaigns, sum.Leads, sum.Templates)
	return nil
}

func seed(ctx context.Context, a *app, f seedFile) (seedSummary, error) {
	var sum seedSummary

	if len(f.Fields) > 0 {
		fields := make([]customfield.Field, 0, len(f.Fields))
		for _, sf := range f.Fields {
			fields = append(fields, customfield.Field{
				ID: sf.ID, FieldKey: sf.Key, FieldName: sf.Name, FieldType: sf.Type, FormOrder: sf.FormOrder,
			})
		}
		for i := range fields {
			if err := fields[i].Validate(); err != nil {
				return sum, errors.Wrapf(err, "custom field %d", i)
			}
		}
		if err := a.fields.ReplaceAll(ctx, f.InstituteID, fields); err != nil {
			return sum, err
		}
		sum.Fields = len(fields)
	}

	for _, sc := range f.Courses {
		c := course.Course{CourseName: sc.Name, ContainLevels: true}
		for _, ss := range sc.Sessions {
			s := course.Session{SessionName: ss.Name, NewSession: true}
			for _, sl := range ss.Levels {
				s.Levels = append(s.Levels, course.Level{LevelName: sl.Name, DurationInDays: sl.Duration, NewLevel: true})
			}
			c.Sessions = append(c.Sessions, s)
		}
		if _, err := orchestrators.ExecuteSubmitCourse(ctx, orchestrators.SubmitCourseInput{
			InstituteID: f.InstituteID, Course: c,
		}, orchestrators.SubmitCourseDeps{CourseStore: a.courses, GenerateID: newID}); err != nil {
			return sum, errors.Wrapf(err, "course %q", sc.Name)
		}
		sum.Courses++
	}

	for _, sc := range f.Campaigns {
		refs := make([]campaign.FieldRef, 0, len(sc.Fields))
		for _, id := range sc.Fields {
			refs = append(refs, campaign.FieldRef{CustomFieldID: id})
		}
		status := sc.Status
		if status == "" {
			status = campaign.StatusActive
		}
		c, err := orchestrators.ExecuteCreateCampaign(ctx, orchestrators.CreateCampaignInput{
			InstituteID: f.InstituteID, Name: sc.Name, AudienceID: sc.Audience, Status: status, CustomFields: refs,
		}, orchestrators.CreateCampaignDeps{CampaignStore: a.campaigns, GenerateID: newID, Now: now})
		if err != nil {
			return sum, errors.Wrapf(err, "campaign %q", sc.Name)
		}
		sum.Campaigns++

		for _, sl := range sc.Leads {
			if _, err := orchestrators.ExecuteRecordLead(ctx, orchestrators.RecordLeadInput{
				CampaignID:        c.ID,
				User:              campaign.User{FullName: sl.FullName, Email: sl.Email, MobileNumber: sl.Mobile},
				CustomFieldValues: sl.Values,
			}, orchestrators.RecordLeadDeps{
				CampaignStore: a.campaigns, LeadStore: a.leads, GenerateID: newID, Now: now,
			}); err != nil {
				return sum, errors.Wrapf(err, "lead %q of campaign %q", sl.FullName, sc.Name)
			}
			sum.Leads++
		}
	}

	for _, st := range f.Templates {
		t, err := orchestrators.ExecuteSaveTemplate(ctx, orchestrators.SaveTemplateInput{
			InstituteID: f.InstituteID, Name: st.Name, Subject: st.Subject, HTML: st.HTML, Channel: st.Channel,
		}, orchestrators.SaveTemplateDeps{TemplateStore: a.templates, GenerateID: newID, Now: now})
		if err != nil {
			return sum, errors.Wrapf(err, "template %q", st.Name)
		}
		if len(st.Mappings) > 0 {
			ms := make([]template.Mapping, 0, len(st.Mappings))
			for placeholder, key := range st.Mappings {
				ms = append(ms, template.Mapping{Placeholder: placeholder, FieldKey: key})
			}
			if _, err := orchestrators.ExecuteSaveMappings(ctx, orchestrators.SaveMappingsInput{
				TemplateID: t.ID, Mappings: ms,
			}, orchestrators.SaveMappingsDeps{
				TemplateStore: a.templates, MappingStore: a.templates, GenerateID: newID,
			}); err != nil {
				return sum, errors.Wrapf(err, "mappings of template %q", st.Name)
			}
		}
		sum.Templates++
	}
	return sum, nil
}
