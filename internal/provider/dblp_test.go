package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dblpSearchJSON = `{"result":{"hits":{"@total":"2","hit":[
  {"info":{"title":"Unpaired Image-to-Image Translation using Cycle-Consistent Adversarial Networks.","venue":"CoRR","type":"Informal and Other Publications","key":"journals/corr/ZhuPIE17","year":"2017"}},
  {"info":{"title":"Unpaired Image-to-Image Translation Using Cycle-Consistent Adversarial Networks.","venue":"ICCV","type":"Conference and Workshop Papers","key":"conf/iccv/ZhuPIE17","year":"2017"}},
  {"info":{"title":"Toward Multimodal Image-to-Image Translation.","venue":["NIPS","NeurIPS"],"type":"Conference and Workshop Papers","key":"conf/nips/ZhuZPDEWS17","year":"2017"}}
]}}}`

const dblpBib = `@inproceedings{DBLP:conf/iccv/ZhuPIE17,
  author    = {Jun{-}Yan Zhu and Taesung Park and Phillip Isola and Alexei A. Efros},
  title     = {Unpaired Image-to-Image Translation Using Cycle-Consistent Adversarial Networks},
  booktitle = {{IEEE} International Conference on Computer Vision, {ICCV} 2017},
  pages     = {2242--2251},
  year      = {2017},
}
`

func TestDBLP_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/publ/api":
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, cycleGANTitle, r.URL.Query().Get("q"))
			w.Write([]byte(dblpSearchJSON))
		case "/rec/conf/iccv/ZhuPIE17.bib":
			w.Write([]byte(dblpBib))
		default:
			t.Errorf("unexpected request %s", r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	d := NewDBLP(testOptions(server)...)
	m, err := d.Query(context.Background(), cycleGAN())
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, dblpBib, m.BibTeX)
	assert.Equal(t, "{IEEE} International Conference on Computer Vision, {ICCV} 2017", m.Venue)
}

func TestDBLP_OnlyCoRR(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"hits":{"@total":"1","hit":[
		  {"info":{"title":"Unpaired Image-to-Image Translation using Cycle-Consistent Adversarial Networks.","venue":"CoRR","type":"Informal Publications","key":"journals/corr/ZhuPIE17"}}
		]}}}`))
	}))
	defer server.Close()

	_, err := NewDBLP(testOptions(server)...).Query(context.Background(), cycleGAN())
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestDBLP_NoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"hits":{"@total":"0"}}}`))
	}))
	defer server.Close()

	_, err := NewDBLP(testOptions(server)...).Query(context.Background(), cycleGAN())
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestDBLP_Ambiguous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"hits":{"hit":[
		  {"info":{"title":"Unpaired Image-to-Image Translation Using Cycle-Consistent Adversarial Networks.","venue":"ICCV","type":"Conference and Workshop Papers","key":"conf/iccv/ZhuPIE17"}},
		  {"info":{"title":"Unpaired Image-to-Image Translation Using Cycle-Consistent Adversarial Networks.","venue":"TPAMI","type":"Journal Articles","key":"journals/pami/ZhuPIE20"}}
		]}}}`))
	}))
	defer server.Close()

	_, err := NewDBLP(testOptions(server)...).Query(context.Background(), cycleGAN())
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestDBLP_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := NewDBLP(testOptions(server)...).Query(context.Background(), cycleGAN())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
