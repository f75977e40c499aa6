package web

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacademy/internal/application/orchestrators"
	"vacademy/internal/domain/template"
)

func TestTemplateLifecycle(t *testing.T) {
	ts := newTestServer(t, testStores(t), nil)
	campaignID := seedCampaign(t, ts)
	rr := ts.do(t, http.MethodPost, "/api/campaigns/"+campaignID+"/leads",
		`{"user":{"full_name":"Asha","email":"asha@example.com"},"custom_field_values":{"f-city":"<Pune>"}}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = ts.do(t, http.MethodPost, "/api/campaigns/"+campaignID+"/leads", `{"user":{"full_name":"No Mail"}}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/institutes/i1/email-templates",
		`{"name":"Welcome","subject":"Hi {{name}}","html":"<p>{{ city }}</p>"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[templateView](t, rr)
	assert.Equal(t, []string{"name", "city"}, created.Placeholders)
	tplPath := "/api/email-templates/" + created.ID

	rr = ts.do(t, http.MethodGet, "/api/institutes/i2/email-templates/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodPut, tplPath+"/mappings",
		`{"mappings":[{"placeholder":"name","field_key":"full_name"},{"placeholder":"city","field_key":"city"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, decode[[]template.Mapping](t, rr), 2)

	rr = ts.do(t, http.MethodPut, tplPath+"/mappings", `{"mappings":[{"placeholder":"zip","field_key":"zip"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodGet, tplPath+"/editor-state", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = ts.do(t, http.MethodPut, tplPath+"/editor-state", `{"rows":[{"type":"text"}]}`)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	rr = ts.do(t, http.MethodGet, tplPath+"/editor-state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"rows":[{"type":"text"}]}`, rr.Body.String())
	rr = ts.do(t, http.MethodPut, tplPath+"/editor-state", `[1]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, tplPath+"/send", `{"campaign_id":"`+campaignID+`","dry_run":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	preview := decode[orchestrators.SendCampaignEmailResult](t, rr)
	assert.Equal(t, 1, preview.Sent)
	assert.Equal(t, 1, preview.Skipped)
	require.Len(t, preview.Previews, 1)
	assert.Equal(t, "<p>&lt;Pune&gt;</p>", preview.Previews[0].HTML)
	assert.Empty(t, ts.sender.Sent())

	rr = ts.do(t, http.MethodPost, tplPath+"/send", `{"campaign_id":"`+campaignID+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sent := ts.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hi Asha", sent[0].Subject)

	rr = ts.do(t, http.MethodPost, tplPath+"/send", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPut, "/api/institutes/i1/email-templates/"+created.ID,
		`{"name":"Welcome","subject":"Hello","html":"","channel":"sms"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/institutes/i1/email-templates", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]templateView](t, rr), 1)

	rr = ts.do(t, http.MethodDelete, "/api/institutes/i1/email-templates/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.do(t, http.MethodGet, tplPath+"/editor-state", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "deleting a template drops its editor state")
	rr = ts.do(t, http.MethodGet, tplPath+"/mappings", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
